package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/arthouse/internal/engine"
	"github.com/roach88/arthouse/internal/ir"
)

// Receipt writes a journaled outcome. A failed outcome uses the error
// envelope and still carries the receipt as data.
func (f *OutputFormatter) Receipt(r *engine.Receipt) error {
	if !f.json() {
		writeReceipt(f.Writer, r)
		return nil
	}
	resp := CLIResponse{Status: "ok", Data: r, RequestID: r.RequestID}
	if !r.Succeeded() {
		resp.Status = "error"
		resp.Error = &CLIError{Code: r.OutputCase, Message: r.Error}
	}
	return f.encode(resp)
}

// writeReceipt prints a receipt as text.
func writeReceipt(w io.Writer, r *engine.Receipt) {
	mark := "✓"
	if !r.Succeeded() {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s seq %d %s %s -> %s\n", mark, r.Seq, r.Kind, r.Action, r.OutputCase)
	if r.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", r.Error)
	}
	for _, a := range r.Attributes {
		fmt.Fprintf(w, "  %s=%s\n", a.Key, a.Value)
	}
	for _, e := range r.Effects {
		fmt.Fprintf(w, "  %s %s -> %s\n", e.Type, coinsString(e.Amount), e.To)
	}
}

func coinsString(coins []ir.Coin) string {
	parts := make([]string, len(coins))
	for i, c := range coins {
		parts[i] = c.Amount + c.Denom
	}
	return strings.Join(parts, ",")
}
