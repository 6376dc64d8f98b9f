package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/agent-server/pkg/config"
	"github.com/Protocol-Lattice/agent-server/pkg/runtime"
)

func runCmd() *cobra.Command {
	var (
		spec    runtime.AgentSpec
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "run MESSAGE",
		Short: "Build an agent and run one turn",
		Example: `  agentd run --model tinyllama --tools YFinanceTools "What is NVDA?"
  agentd run --provider openai --host http://localhost:8080/v1 --model llama3 "hi"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			logger := log.New(io.Discard, "", 0)
			if verbose {
				logger = log.Default()
			}
			if spec.Name == "" {
				spec.Name = "cli"
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
			defer cancel()

			rt := runtime.New(runtime.WithSettings(cfg), runtime.WithLogger(logger))
			ag, resolved, unknown, err := rt.Build(ctx, spec)
			if err != nil {
				return err
			}
			for _, name := range unknown {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("ignoring unknown tool %q", name))
			}
			fmt.Fprintln(cmd.ErrOrStderr(), color.CyanString("%s/%s", resolved.Provider, resolved.Model))

			res := ag.Run(ctx, map[string]any{"message": strings.Join(args, " ")})
			if res.Failed() {
				return errors.New(res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&spec.Model, "model", "m", "tinyllama", "Model id")
	cmd.Flags().StringVarP(&spec.Provider, "provider", "p", "", "Backend: ollama|openai|anthropic|gemini|dummy (default $AGENTD_PROVIDER)")
	cmd.Flags().StringVar(&spec.Host, "host", "", "Backend URL override")
	cmd.Flags().StringSliceVarP(&spec.Tools, "tools", "t", nil, "Toolkits to attach (YFinanceTools)")
	cmd.Flags().StringVarP(&spec.SystemMessage, "system", "s", "", "System message")
	cmd.Flags().StringVarP(&spec.Instructions, "instructions", "i", "", "Extra instructions")
	cmd.Flags().StringVar(&spec.Name, "name", "", "Agent name")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log model and tool activity")
	return cmd
}
