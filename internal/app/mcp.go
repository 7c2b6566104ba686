package app

import (
	"os"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpNoStore bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing insight tools",
	Long: `Start a Model Context Protocol stdio server so an assistant can request
insights during a conversation. The server exposes these tools:

  list_domains         Business domains that can be evaluated
  generate_insights    Evaluate records passed in the call
  get_stored_insights  Evaluate stored records of a domain
  dismiss_insight      Hide or restore an insight in stored results

Example MCP configuration:
  {"mcpServers":{"insightwatch":{"command":"insightwatch","args":["mcp"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpNoStore, "no-store", false, "Only expose the tools that evaluate records passed in the call")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if mcpNoStore {
		srv := mcp.NewServer(newRunner(nil, time.Time{}), nil, appVersion)
		return srv.Run(ctx, os.Stdin, os.Stdout)
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	c := openCache(ctx)
	defer func() { _ = c.Close() }()

	srv := mcp.NewServer(newRunner(db, time.Time{}), db, appVersion,
		mcp.WithCache(c),
		mcp.WithLogger(logger),
	)
	return srv.Run(ctx, os.Stdin, os.Stdout)
}
