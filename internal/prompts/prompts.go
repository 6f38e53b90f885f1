// Package prompts builds the model-facing prompt text. The response format
// requested here is the tag structure the plan parser consumes.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskpilot-dev/taskpilot/internal/executor"
	"github.com/taskpilot-dev/taskpilot/internal/plan"
)

const responseFormat = `Respond in exactly this format:

<status>continue or complete</status>
<analysis>what you observed</analysis>
<strategy>how you will approach it</strategy>
<actions>
<action>
<type>create_file | modify_file | patch_file | run_command | create_directory | list_directory | read_file_lines | inform_user</type>
<description>one line describing the step</description>
<path>relative file or directory path</path>
<content>full file content, when creating or modifying</content>
<command>shell command, for run_command</command>
<start_line>first line, for read_file_lines</start_line>
<end_line>last line, for read_file_lines</end_line>
<message>text for the user, for inform_user</message>
</action>
</actions>

For patch_file, express each edit as:
<change op="replace" line="3"><old>text to find</old><new>replacement</new></change>
<change op="insert_after" line="5"><content>new line</content></change>
<change op="delete" line="9"></change>

Use status "complete" only when the task needs no further actions.`

// Plan builds the initial plan-generation prompt
func Plan(task, discoveryContext string) string {
	var sb strings.Builder
	sb.WriteString("You are an autonomous coding agent. Propose a plan of concrete actions to accomplish this task.\n\n")
	sb.WriteString("## Task\n" + task + "\n")
	if discoveryContext != "" {
		sb.WriteString("\n## Workspace context\n" + discoveryContext + "\n")
	}
	sb.WriteString("\n" + responseFormat)
	return sb.String()
}

// Evaluate builds the prompt asking whether the task is done and, if not,
// what the next plan is. The full execution history is supplied so the model
// can see what already happened.
func Evaluate(task string, results []executor.PlanResult, previous []*plan.Plan) string {
	var sb strings.Builder
	sb.WriteString("You are an autonomous coding agent iterating on a task. Review what has been executed and decide whether the task is complete.\n\n")
	sb.WriteString("## Task\n" + task + "\n\n")
	sb.WriteString("## Executed so far\n")
	for _, pr := range results {
		fmt.Fprintf(&sb, "\nPlan %d (%s):\n", pr.PlanNumber, pr.ExecutionTime.Round(10*time.Millisecond))
		for _, res := range pr.Results {
			marker := "ok"
			detail := res.Result
			if !res.Success {
				marker = "FAILED"
				detail = res.Error
			}
			fmt.Fprintf(&sb, "- [%s] %s %s: %s\n",
				marker, res.Action.Kind, res.Action.Params.Path, truncate(detail, 300))
		}
	}
	if len(previous) > 0 {
		sb.WriteString("\n## Prior strategies\n")
		for i, p := range previous {
			if p.Strategy != "" {
				fmt.Fprintf(&sb, "%d. %s\n", i+1, truncate(p.Strategy, 200))
			}
		}
	}
	sb.WriteString("\nIf the task is complete, respond with status complete and no actions. Otherwise propose the next plan. Do not repeat actions that already succeeded.\n\n")
	sb.WriteString(responseFormat)
	return sb.String()
}

// Correction builds the prompt requesting a corrected plan after a failure.
// The failing error text and its classification give the model the context
// to self-correct.
func Correction(task string, prior *plan.Plan, completed []executor.ActionResult, errMsg, classification string) string {
	var sb strings.Builder
	sb.WriteString("You are an autonomous coding agent. An action in your plan failed. Produce a corrected plan for the remaining work.\n\n")
	sb.WriteString("## Task\n" + task + "\n\n")
	if prior != nil && prior.Strategy != "" {
		sb.WriteString("## Prior strategy\n" + prior.Strategy + "\n\n")
	}
	if len(completed) > 0 {
		sb.WriteString("## Steps already completed (do not redo these)\n")
		for _, res := range completed {
			fmt.Fprintf(&sb, "- %s %s: %s\n",
				res.Action.Kind, res.Action.Params.Path, truncate(res.Result, 200))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "## Failure (%s)\n%s\n\n", classification, errMsg)
	sb.WriteString("Propose a corrected plan that works around this failure. Fix the cause, do not simply retry the identical action.\n\n")
	sb.WriteString(responseFormat)
	return sb.String()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
