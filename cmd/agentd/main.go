// Package main provides the agentd entrypoint: an HTTP server that builds chat agents on
// top of a local model server, plus a few commands for trying agents from a shell.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentd",
		Short: "Agent server for local chat models",
		Long: `agentd creates agents that wrap a chat model (Ollama by default) and optional
mock finance tools, and runs single request/response turns through them.

Usage modes:
  agentd serve           Start the HTTP API
  agentd run MESSAGE     Run one turn locally
  agentd tool NAME TICK  Call a mock tool directly`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd(), runCmd(), toolCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
