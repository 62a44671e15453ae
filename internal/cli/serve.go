package cli

import (
	"github.com/spf13/cobra"

	"github.com/astropaint/moonshine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as an MCP server over stdin/stdout",
	Long: `Serve speaks the Model Context Protocol (JSON-RPC 2.0, one message per
line) over stdio, exposing the image_info, detect_moon, and enhance_moon
tools. Configure it in an MCP client such as Claude Desktop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.New(version).Run()
	},
}
