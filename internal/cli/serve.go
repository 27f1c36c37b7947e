package cli

import (
	"mcpconf/internal/mcp"

	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and project status over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			return mcp.NewServer(m, a.logger, a.version).Serve()
		},
	}
}
