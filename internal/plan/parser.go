package plan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/taskpilot-dev/taskpilot/internal/action"
)

// The parser consumes the tag format the prompt templates ask for:
//
//	<status>continue</status>
//	<analysis>...</analysis>
//	<actions>
//	  <action>
//	    <type>create_file</type>
//	    <description>...</description>
//	    <path>...</path>
//	    <content>...</content>
//	  </action>
//	</actions>
//
// Model output drifts from this constantly: unbalanced tags, prose outside
// the structure, reasoning preambles. Every field is therefore extracted
// independently, and a missing close tag falls back to capturing through the
// end of the enclosing block.

var (
	actionOpenRe    = regexp.MustCompile(`(?i)<action>`)
	changeBlockRe   = regexp.MustCompile(`(?is)<change(\s[^>]*)?>(.*?)</change>`)
	changeAttrRe    = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)
	thinkBlockRe    = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)
	thinkOpenRe     = regexp.MustCompile(`(?is)^\s*<think(?:ing)?>`)
	sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)
)

// ParsePlan converts raw model output into a Plan. Unknown action kinds are
// preserved so the executor can reject them with a typed error instead of the
// parser silently dropping them. Returns *ParseError when the text contains
// neither a status tag nor any action block.
func ParsePlan(text string) (*Plan, error) {
	body := StripReasoningPreamble(text)

	statusRaw, hasStatus := extractTag(body, "status")
	blocks := extractActionBlocks(body)

	if !hasStatus && len(blocks) == 0 {
		return nil, newParseError("no status or action structure found", text)
	}

	p := &Plan{
		Status:    normalizeStatus(statusRaw),
		Analysis:  firstTag(body, "analysis"),
		Strategy:  firstTag(body, "strategy"),
		Reasoning: firstTag(body, "reasoning"),
	}

	for _, block := range blocks {
		p.Actions = append(p.Actions, parseActionBlock(block))
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseActionResponse parses a single-next-step reply. It never fails hard:
// with no recognizable structure the status degrades to "continue" and the
// summary to a best-effort readable line.
func ParseActionResponse(text string) *ActionResponse {
	body := StripReasoningPreamble(text)

	resp := &ActionResponse{}

	if raw, ok := extractTag(body, "status"); ok {
		resp.Status = normalizeStatus(raw)
	} else if containsCompletionPhrase(body) {
		resp.Status = StatusComplete
	} else {
		resp.Status = StatusContinue
	}

	if nextRaw, ok := extractTag(body, "next_action"); ok {
		a := parseActionBlock(nextRaw)
		resp.NextAction = &a
	} else if blocks := extractActionBlocks(body); len(blocks) > 0 {
		a := parseActionBlock(blocks[0])
		resp.NextAction = &a
	}

	if summary := firstTag(body, "summary"); summary != "" {
		resp.Summary = summary
	} else {
		resp.Summary = ExtractReadableLine(text)
	}

	return resp
}

// StripReasoningPreamble removes a <think>/<thinking> preamble some models
// emit before the structured answer. If structured content follows the
// preamble it is returned; an unterminated preamble with nothing after it is
// returned unchanged so the fallback extraction can work over it.
func StripReasoningPreamble(text string) string {
	stripped := thinkBlockRe.ReplaceAllString(text, "")
	if strings.TrimSpace(stripped) != "" {
		return stripped
	}
	// Unterminated preamble: drop the opening tag and keep whatever follows.
	if loc := thinkOpenRe.FindStringIndex(text); loc != nil {
		rest := text[loc[1]:]
		if strings.TrimSpace(rest) != "" {
			return rest
		}
	}
	return text
}

// readableLinePhrases anchor the last-resort extraction of a human-readable
// line from an unstructured response.
var readableLinePhrases = []string{
	"i will ", "i'll ", "the task ", "first, ", "next, ", "let me ",
	"the plan ", "we need ", "to accomplish ",
}

// fallbackSummary is returned when no readable line can be found at all
const fallbackSummary = "model response contained no structured plan"

// ExtractReadableLine pulls a short human-readable line out of unstructured
// model output. It is a degrade-gracefully path and never fails: when no
// anchored phrase or usable sentence exists it returns a generic placeholder.
func ExtractReadableLine(text string) string {
	clean := strings.TrimSpace(stripTags(text))
	if clean == "" {
		return fallbackSummary
	}

	lower := strings.ToLower(clean)
	for _, phrase := range readableLinePhrases {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			return trimToSentence(clean[idx:])
		}
	}

	// No anchor phrase: settle for the last non-empty sentence.
	sentences := sentenceSplitRe.Split(clean, -1)
	for i := len(sentences) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(sentences[i]); s != "" {
			return truncateLine(s)
		}
	}
	return fallbackSummary
}

func trimToSentence(s string) string {
	if idx := strings.IndexAny(s, ".!?\n"); idx > 0 {
		s = s[:idx]
	}
	return truncateLine(strings.TrimSpace(s))
}

func truncateLine(s string) string {
	const max = 160
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

func parseActionBlock(block string) action.Action {
	a := action.Action{
		Status:      action.StatusPending,
		Description: firstTag(block, "description"),
	}

	kindRaw := firstTag(block, "type")
	if kindRaw == "" {
		kindRaw = firstTag(block, "kind")
	}
	a.Kind = action.Kind(strings.ToLower(strings.TrimSpace(kindRaw)))

	a.Params = action.Params{
		Path:        firstTag(block, "path"),
		Content:     rawTag(block, "content"),
		Command:     firstTag(block, "command"),
		Cwd:         firstTag(block, "cwd"),
		TimeoutSecs: intTag(block, "timeout"),
		StartLine:   intTag(block, "start_line"),
		EndLine:     intTag(block, "end_line"),
		Message:     firstTag(block, "message"),
		Changes:     parseChanges(block),
	}
	return a
}

func parseChanges(block string) []action.Change {
	matches := changeBlockRe.FindAllStringSubmatch(block, -1)
	if len(matches) == 0 {
		return nil
	}

	changes := make([]action.Change, 0, len(matches))
	for _, m := range matches {
		attrs, body := m[1], m[2]

		c := action.Change{
			Op:      action.ChangeOp(strings.ToLower(firstTag(body, "op"))),
			Line:    intTag(body, "line"),
			Old:     rawTag(body, "old"),
			New:     rawTag(body, "new"),
			Content: rawTag(body, "content"),
		}

		// Attribute form: <change op="replace" line="3">
		for _, am := range changeAttrRe.FindAllStringSubmatch(attrs, -1) {
			switch strings.ToLower(am[1]) {
			case "op":
				c.Op = action.ChangeOp(strings.ToLower(am[2]))
			case "line":
				if n, err := strconv.Atoi(am[2]); err == nil {
					c.Line = n
				}
			}
		}

		if c.Op == "" {
			// Infer the op from which fields are present.
			switch {
			case c.Old != "" || c.New != "":
				c.Op = action.OpReplace
			case c.Content != "":
				c.Op = action.OpAdd
			default:
				c.Op = action.OpDelete
			}
		}
		changes = append(changes, c)
	}
	return changes
}

// extractActionBlocks returns the inner text of each <action> block. When
// close tags are missing, the text is split on the open tags instead so a
// truncated response still yields its leading actions.
func extractActionBlocks(text string) []string {
	scope := text
	if m := regexp.MustCompile(`(?is)<actions>(.*?)</actions>`).FindStringSubmatch(text); m != nil {
		scope = m[1]
	} else if idx := strings.Index(strings.ToLower(text), "<actions>"); idx >= 0 {
		scope = text[idx+len("<actions>"):]
	}

	// Splitting on open tags instead of matching balanced pairs keeps a
	// truncated response's trailing, unclosed action instead of dropping it.
	locs := actionOpenRe.FindAllStringIndex(scope, -1)
	if len(locs) == 0 {
		return nil
	}
	var blocks []string
	for i, loc := range locs {
		end := len(scope)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		chunk := scope[loc[1]:end]
		if idx := strings.Index(strings.ToLower(chunk), "</action>"); idx >= 0 {
			chunk = chunk[:idx]
		}
		chunk = strings.TrimSuffix(strings.TrimSpace(chunk), "</actions>")
		if strings.TrimSpace(chunk) != "" {
			blocks = append(blocks, chunk)
		}
	}
	return blocks
}

// extractTag returns the trimmed inner text of the first <name> tag. A tag
// with a missing close tag captures through the end of the text.
func extractTag(text, name string) (string, bool) {
	closed := regexp.MustCompile(`(?is)<` + name + `>(.*?)</` + name + `>`)
	if m := closed.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	open := regexp.MustCompile(`(?is)<` + name + `>(.*)$`)
	if m := open.FindStringSubmatch(text); m != nil {
		inner := m[1]
		// Stop at the next opening tag so an unclosed tag does not swallow
		// the rest of the document.
		if idx := strings.Index(inner, "<"); idx >= 0 {
			inner = inner[:idx]
		}
		return strings.TrimSpace(inner), true
	}
	return "", false
}

func firstTag(text, name string) string {
	v, _ := extractTag(text, name)
	return v
}

// rawTag is extractTag without trimming, for content fields where leading
// whitespace is significant. Only a single leading/trailing newline from the
// tag layout itself is removed.
func rawTag(text, name string) string {
	closed := regexp.MustCompile(`(?is)<` + name + `>(.*?)</` + name + `>`)
	if m := closed.FindStringSubmatch(text); m != nil {
		return strings.TrimSuffix(strings.TrimPrefix(m[1], "\n"), "\n")
	}
	return ""
}

func intTag(text, name string) int {
	raw := firstTag(text, name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func normalizeStatus(raw string) Status {
	if strings.Contains(strings.ToLower(raw), "complete") {
		return StatusComplete
	}
	return StatusContinue
}

func containsCompletionPhrase(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "task is complete") ||
		strings.Contains(lower, "task complete") ||
		strings.Contains(lower, "nothing further")
}

var tagRe = regexp.MustCompile(`<[^>]{1,40}>`)

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, " ")
}
