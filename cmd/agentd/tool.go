package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	agent "github.com/Protocol-Lattice/agent-server"
	"github.com/Protocol-Lattice/agent-server/pkg/tools"
)

func toolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool NAME TICKER",
		Short: "Call a mock tool directly",
		Long: `Call one of the mock tools with a ticker and print its JSON record.

Available tools: get_current_stock_price, get_company_info`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := agent.NewStaticToolCatalog(nil)
			for _, kind := range tools.Kinds() {
				built, err := tools.Build(kind, log.New(io.Discard, "", 0))
				if err != nil {
					return err
				}
				for _, t := range built {
					if err := catalog.Register(t); err != nil {
						return err
					}
				}
			}

			tool, spec, ok := catalog.Lookup(args[0])
			if !ok {
				names := agent.ToolNames(catalog.Tools())
				return fmt.Errorf("unknown tool %q (available: %s)", args[0], strings.Join(names, ", "))
			}

			resp, err := tool.Invoke(cmd.Context(), agent.ToolRequest{Arguments: map[string]any{"ticker": args[1]}})
			if err != nil {
				return fmt.Errorf("%s: %w", spec.Name, err)
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, []byte(resp.Content), "", "  "); err != nil {
				pretty.Reset()
				pretty.WriteString(resp.Content)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("✓ %s", spec.Name))
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		},
	}
	return cmd
}
