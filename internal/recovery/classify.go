package recovery

import "strings"

// Classification is a closed, best-effort label for a failure, derived from
// message text. It exists for diagnostics and prompt context only; recovery
// behavior never branches on it.
type Classification string

const (
	ClassMissingCommand Classification = "missing-command"
	ClassPermission     Classification = "permission"
	ClassMissingFile    Classification = "missing-file"
	ClassSyntax         Classification = "syntax"
	ClassNetwork        Classification = "network"
	ClassUnknown        Classification = "unknown"
)

// IsValid checks if a classification value is valid
func (c Classification) IsValid() bool {
	for _, valid := range AllClassifications() {
		if c == valid {
			return true
		}
	}
	return false
}

// AllClassifications returns all classification values
func AllClassifications() []Classification {
	return []Classification{
		ClassMissingCommand, ClassPermission, ClassMissingFile,
		ClassSyntax, ClassNetwork, ClassUnknown,
	}
}

// String returns the string representation of the classification
func (c Classification) String() string {
	return string(c)
}

// classPatterns maps each classification to the message substrings that
// indicate it. Order matters: the first classification with a match wins.
var classPatterns = []struct {
	class    Classification
	patterns []string
}{
	{ClassMissingCommand, []string{
		"command not found", "executable file not found", "not recognized as",
	}},
	{ClassPermission, []string{
		"permission denied", "access denied", "operation not permitted", "read-only file system",
	}},
	{ClassMissingFile, []string{
		"no such file or directory", "does not exist", "cannot find the file",
	}},
	{ClassSyntax, []string{
		"syntax error", "invalid syntax", "unexpected token", "parse error",
	}},
	{ClassNetwork, []string{
		"connection refused", "connection reset", "no such host",
		"network is unreachable", "i/o timeout",
	}},
}

// Classify labels an error message by substring matching. Unmatched messages
// are ClassUnknown.
func Classify(message string) Classification {
	lower := strings.ToLower(message)
	for _, entry := range classPatterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(lower, pattern) {
				return entry.class
			}
		}
	}
	return ClassUnknown
}
