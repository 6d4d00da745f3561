package agent

import (
	"fmt"
	"strings"

	"github.com/mbragd/finai/internal/tools"
)

// summarizeResults turns a round of tool outcomes into the textual
// entry folded back into history for the next model call. Order
// matches execution order, so the summary is deterministic.
func summarizeResults(results []tools.Result) string {
	var b strings.Builder
	b.WriteString("Tool results:\n")
	for _, res := range results {
		if res.Success {
			out := res.Content
			if out == "" {
				// Some models dislike empty tool output
				out = "<EMPTY-RESPONSE>"
			}
			fmt.Fprintf(&b, "- %v: %v\n", res.Name, out)
		} else {
			fmt.Fprintf(&b, "- %v: ERROR: %v\n", res.Name, res.Err)
		}
	}
	b.WriteString("Continue helping the user based on these results.")
	return b.String()
}
