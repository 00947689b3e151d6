package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/arthouse/internal/engine"
	"github.com/roach88/arthouse/internal/ledger"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Sender    string
	Funds     string
	RequestID string
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <msg-json>",
		Short: "Execute a mutating message",
		Long: `Execute one message against the contract and journal the outcome.

Attached funds move from the sender to the contract before the message
runs and return to the sender if it fails.

Exit codes:
  0 - The message succeeded
  1 - The contract rejected the message
  2 - Command error (database error, etc.)

Examples:
  arthouse exec --sender alice --funds 300ucosm '{"deposit":{}}'
  arthouse exec --sender alice '{"withdraw":{"amount":"100"}}'
  arthouse exec --sender bob '{"purchase_art":{"art_id":0}}' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sender, "sender", "", "sending account (required)")
	_ = cmd.MarkFlagRequired("sender")
	cmd.Flags().StringVar(&opts.Funds, "funds", "", "attached coins, e.g. 100ucosm")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "request id (generated when empty)")

	return cmd
}

func runExec(opts *ExecOptions, msg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	funds, err := ledger.ParseCoins(opts.Funds)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --funds", err)
	}

	n, err := openNode(cmd.Context(), opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open node", err)
	}
	defer n.Close()

	receipt, err := n.engine.Execute(cmd.Context(), engine.Tx{
		RequestID: opts.RequestID,
		Sender:    ledger.Addr(opts.Sender),
		Funds:     funds,
		Msg:       json.RawMessage(msg),
	})
	if receipt == nil {
		return formatter.reject("request rejected", err)
	}

	if err := formatter.Receipt(receipt); err != nil {
		return err
	}

	if !receipt.Succeeded() {
		return NewExitError(ExitFailure, fmt.Sprintf("execute failed: %s", receipt.OutputCase))
	}
	return nil
}
