// Command arthouse runs the arthouse ledger node.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/arthouse/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "arthouse:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
