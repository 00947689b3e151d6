package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/arthouse/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init <genesis.cue>",
		Short: "Mint genesis balances and instantiate the contract",
		Long: `Load a CUE genesis file, validate it against the genesis schema, and
journal the genesis mint followed by contract instantiation.

A journal can be initialized only once.

Exit codes:
  0 - Genesis committed
  1 - The journal already holds entries, or the ledger refused the genesis
  2 - Command error (invalid genesis, database error, etc.)

Example:
  arthouse init --db ./arthouse.db ./genesis.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, args[0], cmd)
		},
	}
}

func runInit(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	g, err := config.LoadGenesis(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid genesis", err)
	}
	formatter.VerboseLog("Genesis: owner %s, %d account(s)", g.Owner, len(g.Accounts))

	n, err := openNode(cmd.Context(), opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open node", err)
	}
	defer n.Close()

	receipts, err := n.engine.Genesis(cmd.Context(), g)
	if err != nil {
		return formatter.reject("genesis failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(receipts)
	}
	w := cmd.OutOrStdout()
	for _, r := range receipts {
		writeReceipt(w, r)
	}
	fmt.Fprintf(w, "Genesis committed: contract %s owned by %s\n", n.engine.Contract(), g.Owner)
	return nil
}
