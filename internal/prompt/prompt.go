// Package prompt builds the system prompt out of the tool catalog and
// the surrounding application context.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/mbragd/finai/internal/tools"
)

// AppContext carries the application state the assistant should know
// about. Produced by the host app, opaque to the orchestration core.
type AppContext struct {
	BookName string
	Currency string
	Username string
	Today    time.Time
}

// Builder is the prompt construction capability. Implementations must
// be pure: same catalog and context, same prompt.
type Builder interface {
	Build(catalog []tools.Specification, appCtx AppContext) string
}

// Default renders a bookkeeping assistant prompt with the available
// tool catalog appended
type Default struct{}

func (d Default) Build(catalog []tools.Specification, appCtx AppContext) string {
	var b strings.Builder
	b.WriteString("You are a personal bookkeeping assistant. Help the user track expenses, income and budgets.\n")
	if appCtx.BookName != "" {
		fmt.Fprintf(&b, "Current book: '%v'.\n", appCtx.BookName)
	}
	if appCtx.Currency != "" {
		fmt.Fprintf(&b, "Currency: %v.\n", appCtx.Currency)
	}
	if appCtx.Username != "" {
		fmt.Fprintf(&b, "The user is called %v.\n", appCtx.Username)
	}
	if !appCtx.Today.IsZero() {
		fmt.Fprintf(&b, "Today's date: %v.\n", appCtx.Today.Format("2006-01-02"))
	}
	if len(catalog) > 0 {
		b.WriteString("\nYou have the following tools available:\n")
		for _, spec := range catalog {
			fmt.Fprintf(&b, "- %v: %v\n", spec.Name, spec.Description)
		}
		b.WriteString("\nUse tools when the user asks to record or inspect financial data. Answer directly when no tool is needed.\n")
	}
	return b.String()
}
