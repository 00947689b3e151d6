package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/arthouse/internal/engine"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Re-execute every journaled invocation against empty state and verify
that the recomputed invocation ids, outcomes and completion ids match the
journal, and that the resulting state root matches the node's state.

Exit codes:
  0 - The journal replays exactly
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  arthouse replay --db ./arthouse.db
  arthouse replay --db ./arthouse.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd)
		},
	}
}

func runReplay(opts *RootOptions, cmd *cobra.Command) error {
	n, err := openNode(cmd.Context(), opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open node", err)
	}
	defer n.Close()

	report, err := engine.Replay(cmd.Context(), n.engine.Journal(), n.engine.Backend(), n.engine.Contract())
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, report)
	}
	return outputReplayText(cmd, report, opts.Verbose)
}

// outputReplayJSON outputs the replay report as JSON.
func outputReplayJSON(cmd *cobra.Command, report *engine.ReplayReport) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
	}

	if !report.OK() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !report.OK() {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay report as text.
func outputReplayText(cmd *cobra.Command, report *engine.ReplayReport, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d entr(ies), last seq %d\n", report.Entries, report.LastSeq)
	if verbose {
		fmt.Fprintf(w, "  Replayed root: %s\n", report.Root)
		fmt.Fprintf(w, "  Node root:     %s\n", report.SourceRoot)
	}

	for _, m := range report.Mismatches {
		fmt.Fprintf(w, "✗ seq %d %s\n", m.Seq, m.Field)
		fmt.Fprintf(w, "  journal:  %s\n", m.Want)
		fmt.Fprintf(w, "  replayed: %s\n", m.Got)
	}
	if report.SourceRoot != "" && report.Root != report.SourceRoot {
		fmt.Fprintln(w, "✗ state root differs from the node's state")
	}

	if report.OK() {
		fmt.Fprintln(w, "✓ Journal verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
