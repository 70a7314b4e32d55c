package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pairloop/pairloop/internal/aggregate"
	"github.com/pairloop/pairloop/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets Claude Code run tasks through the iteration loop and inspect
stored results natively. Configure in Claude Code with:

  {
    "mcpServers": {
      "pairloop": { "command": "pairloop", "args": ["mcp"] }
    }
  }

Available tools: pairloop_run_task, pairloop_get_result,
pairloop_list_results, pairloop_recent_history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		history := aggregate.NewHistory(viper.GetInt("history.size"))

		srv := mcp.NewServer(s, reg, history, loopConfig())
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
