package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/go_away_boilerplate/pkg/shutdown"

	"github.com/mbragd/finai/internal/agent"
	"github.com/mbragd/finai/internal/config"
	"github.com/mbragd/finai/internal/fintools"
	"github.com/mbragd/finai/internal/generic"
	"github.com/mbragd/finai/internal/models"
	"github.com/mbragd/finai/internal/prompt"
	"github.com/mbragd/finai/internal/tools"
)

const usage = `finai - bookkeeping (ai) assistant core, demo shell

Prerequisites:
  - Set the OPENAI_API_KEY environment variable (or whatever api_key_env
    points at in your config) to your API key
  - (Optional) Set the DEBUG environment variable for verbose logging

Usage: finai [flags]

Flags:
  -c, -config string   Path to the yaml config file. (default 'finai.yaml')

The shell reads one prompt per line and streams the assistant's answer,
including tool calls against an in-memory demo book. Exit with ctrl+d
or ctrl+c.
`

func main() {
	ancli.SetupSlog()
	configPath := flag.String("config", "finai.yaml", "path to the yaml config file")
	flag.StringVar(configPath, "c", "finai.yaml", "path to the yaml config file")
	flag.Usage = func() { fmt.Print(usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		ancli.Errf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	completer, err := generic.New(cfg.Model.Name, cfg.Model.Endpoint, cfg.Model.APIKeyEnv)
	if err != nil {
		ancli.Errf("failed to setup completer: %v\n", err)
		os.Exit(1)
	}
	completer.MaxTokens = cfg.Model.MaxTokens
	completer.Temperature = cfg.Model.Temperature

	registry := tools.NewRegistry()
	fintools.RegisterAll(registry, newMemoryBook())
	for _, spec := range registry.Specs() {
		completer.RegisterTool(spec)
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		registry.Subscribe(func(ev tools.Event) {
			ancli.Noticef("tool event: %v, tool: %v, err: %v\n", ev.Kind, ev.ToolName, ev.Err)
		})
	}

	controller := agent.New(completer, registry, prompt.Default{}, prompt.AppContext{
		BookName: cfg.Book.Name,
		Currency: cfg.Book.Currency,
		Today:    time.Now(),
	}, agent.Config{
		MaxIterations: cfg.Agent.MaxIterations,
		HistorySize:   cfg.Agent.HistorySize,
		HistoryWindow: cfg.Agent.HistoryWindow,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { shutdown.Monitor(cancel) }()

	repl(ctx, controller)
	cancel()
	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.PrintOK("things seems to have worked out. Bye bye!\n")
	}
}

func repl(ctx context.Context, controller *agent.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		printed := 0
		resp := controller.SendMessage(ctx, line, func(snapshot models.CompositeResponse, final bool) {
			printed = printProgress(snapshot, printed)
			if final {
				fmt.Println()
			}
		})
		if resp.Error {
			ancli.PrintWarn("the turn ended with an error, see output above\n")
		}
		fmt.Print("> ")
	}
}

// printProgress prints whatever full messages appeared since the last
// snapshot. Streaming text token by token is left to real UIs, one
// line per settled message is plenty for a demo shell.
func printProgress(snapshot models.CompositeResponse, printed int) int {
	for ; printed < len(snapshot.Messages); printed++ {
		msg := snapshot.Messages[printed]
		if msg.Loading {
			return printed
		}
		switch msg.Kind {
		case models.KindText:
			if msg.IsUser {
				continue
			}
			fmt.Println(msg.Content)
		case models.KindThinking:
			ancli.Noticef("thinking: %v\n", msg.Thinking)
		case models.KindToolCall:
			if msg.Outcome != nil && msg.Outcome.Success {
				ancli.Okf("%v (%v): %v\n", msg.ToolName, msg.Outcome.Duration.Round(time.Millisecond), msg.Outcome.Result)
			} else if msg.Outcome != nil {
				ancli.PrintWarn(fmt.Sprintf("%v: %v\n", msg.ToolName, msg.Outcome.ErrorMessage))
			}
		case models.KindToolResult, models.KindImage:
		}
	}
	return printed
}
