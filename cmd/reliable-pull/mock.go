package main

import (
	"github.com/spf13/cobra"
	"github.com/tshea68/reliable-pull/api"
)

// newMockCommand creates the mock command, which serves a local stand-in for
// the vendor API so the pull workflow can be exercised without credentials.
func newMockCommand() *cobra.Command {
	var port string
	var readyAfter int

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Start a local mock of the vendor export API",
		Long: `The mock command starts an HTTP server that emulates the vendor's
create and download endpoints. The download endpoint answers not-ready for
the first --ready-after polls per date, then serves a small sample export.

Point a pull at it with:
  reliable-pull pull --create --base-url http://localhost:8077/ws/rest/ReliablePartsBoomiAPI`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := api.NewMockServer(api.MockOptions{
				Port:       port,
				ReadyAfter: readyAfter,
			})
			return server.Start()
		},
	}

	cmd.Flags().StringVar(&port, "port", "8077", "Port to listen on")
	cmd.Flags().IntVar(&readyAfter, "ready-after", 2, "Not-ready answers per date before the file is served")

	return cmd
}
