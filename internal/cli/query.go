package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <msg-json>",
		Short: "Run a read-only query",
		Long: `Run a query against committed state. Queries are not journaled.

Exit codes:
  0 - Query answered
  1 - The contract rejected the query
  2 - Command error

Examples:
  arthouse query '{"get_count":{}}'
  arthouse query '{"get_art":{"art_id":0}}'
  arthouse query '{"list_art":{"limit":10}}' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], cmd)
		},
	}
}

func runQuery(opts *RootOptions, msg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	n, err := openNode(cmd.Context(), opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open node", err)
	}
	defer n.Close()

	out, err := n.engine.Query(cmd.Context(), []byte(msg))
	if err != nil {
		return formatter.reject("query failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(json.RawMessage(out))
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return nil
}
