package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/arthouse/internal/ir"
	"github.com/roach88/arthouse/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	After  int64
	Limit  int
	Sender string
	Kind   string
	Action string
	Case   string
}

// HistoryEntry is one journal entry in command output.
type HistoryEntry struct {
	Seq          int64          `json:"seq"`
	RequestID    string         `json:"request_id"`
	Kind         ir.Kind        `json:"kind"`
	Action       string         `json:"action"`
	Sender       string         `json:"sender"`
	Funds        []ir.Coin      `json:"funds"`
	Msg          ir.Object      `json:"msg"`
	InvocationID string         `json:"invocation_id"`
	CompletionID string         `json:"completion_id"`
	OutputCase   string         `json:"output_case"`
	Attributes   []ir.Attribute `json:"attributes"`
	Effects      []ir.Effect    `json:"effects"`
	Error        string         `json:"error,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled invocations",
		Long: `List journal entries in seq order, each with its outcome. Filters
combine: only entries matching all of them are listed.

Examples:
  arthouse history --db ./arthouse.db
  arthouse history --after 10 --limit 5
  arthouse history --sender alice --action withdraw --case Success
  arthouse history --kind genesis --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "list entries after this seq")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of entries (0 lists all)")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "only entries from this sender")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only entries of this kind (genesis|instantiate|execute)")
	cmd.Flags().StringVar(&opts.Action, "action", "", "only entries of this action, e.g. deposit")
	cmd.Flags().StringVar(&opts.Case, "case", "", "only entries with this output case, e.g. Success")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.After < 0 || opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--after and --limit must be non-negative")
	}
	switch ir.Kind(opts.Kind) {
	case "", ir.KindGenesis, ir.KindInstantiate, ir.KindExecute:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown kind %q", opts.Kind))
	}

	n, err := openNode(cmd.Context(), opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open node", err)
	}
	defer n.Close()

	entries, err := n.history(cmd.Context(), store.JournalFilter{
		AfterSeq:   opts.After,
		Limit:      opts.Limit,
		Sender:     opts.Sender,
		Kind:       ir.Kind(opts.Kind),
		Action:     opts.Action,
		OutputCase: opts.Case,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	history := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		history[i] = HistoryEntry{
			Seq:          e.Invocation.Seq,
			RequestID:    e.Invocation.RequestID,
			Kind:         e.Invocation.Kind,
			Action:       e.Invocation.Action(),
			Sender:       e.Invocation.Sender,
			Funds:        e.Invocation.Funds,
			Msg:          e.Invocation.Msg,
			InvocationID: e.Invocation.ID,
			CompletionID: e.Completion.ID,
			OutputCase:   e.Completion.OutputCase,
			Attributes:   e.Completion.Attributes,
			Effects:      e.Completion.Effects,
			Error:        e.Completion.Error,
		}
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(history)
	}

	w := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintln(w, "No journal entries.")
		return nil
	}
	for _, h := range history {
		fmt.Fprintf(w, "%6d  %-10s %-14s %-12s %s\n", h.Seq, h.Kind, h.Action, h.Sender, h.OutputCase)
		if opts.Verbose {
			fmt.Fprintf(w, "        request %s\n", h.RequestID)
			fmt.Fprintf(w, "        invocation %s\n", h.InvocationID)
			fmt.Fprintf(w, "        completion %s\n", h.CompletionID)
			if len(h.Funds) > 0 {
				fmt.Fprintf(w, "        funds %s\n", coinsString(h.Funds))
			}
			for _, a := range h.Attributes {
				fmt.Fprintf(w, "        %s=%s\n", a.Key, a.Value)
			}
		}
	}
	return nil
}
