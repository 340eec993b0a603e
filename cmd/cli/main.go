// Command issuedesk is the command line client for the issuedesk API.
package main

import (
	"encoding/json"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "issuedesk",
		Short: "issuedesk command line client",
		Long: `Command line client for the issuedesk API.

Environment Variables:
  ISSUEDESK_API    API endpoint (default: http://localhost:8080/api)`,
		SilenceUsage: true,
	}

	root.AddCommand(authCommands())
	root.AddCommand(teamCommands())
	root.AddCommand(siteCommands())
	root.AddCommand(issueCommands())
	return root
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
