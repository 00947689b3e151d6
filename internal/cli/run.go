package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/arthouse/internal/engine"
	"github.com/roach88/arthouse/internal/metrics"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	MetricsAddr string

	// RequestIDs allows overriding the request id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RequestIDs engine.RequestIDGenerator
}

// RunOutcome is one processed request, written as a JSON line.
type RunOutcome struct {
	RequestID string          `json:"request_id,omitempty"`
	Receipt   *engine.Receipt `json:"receipt,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Process a stream of requests through the engine loop",
		Long: `Start the single-writer engine loop and feed it requests, one JSON
object per line:

  {"sender":"alice","funds":[{"denom":"ucosm","amount":"300"}],"msg":{"deposit":{}}}

Requests are read from the file argument or from stdin ("-" or no
argument). Each processed request is written to stdout as one JSON line.
The loop stops when the input ends or on SIGINT/SIGTERM.

When a metrics address is configured, Prometheus metrics are served on
/metrics while the loop runs.

Examples:
  arthouse run --db ./arthouse.db requests.ndjson
  cat requests.ndjson | arthouse run --metrics-addr :9090`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return runEngine(opts, input, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")

	return cmd
}

func runEngine(opts *RunOptions, input string, cmd *cobra.Command) error {
	var r io.Reader = cmd.InOrStdin()
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open input", err)
		}
		defer f.Close()
		r = f
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	out := json.NewEncoder(cmd.OutOrStdout())
	engineOpts := []engine.Option{
		engine.WithReceiptHook(func(tx engine.Tx, receipt *engine.Receipt, err error) {
			outcome := RunOutcome{RequestID: tx.RequestID, Receipt: receipt}
			if receipt != nil {
				outcome.RequestID = receipt.RequestID
			} else if err != nil {
				outcome.Error = err.Error()
			}
			if encErr := out.Encode(outcome); encErr != nil {
				slog.Error("failed to write outcome", "error", encErr)
			}
		}),
	}
	if opts.RequestIDs != nil {
		engineOpts = append(engineOpts, engine.WithRequestIDs(opts.RequestIDs))
	}

	addr := opts.MetricsAddr
	if addr == "" {
		addr = opts.Config.MetricsAddr
	}
	var srv *http.Server
	if addr != "" {
		pm := metrics.NewPrometheusMetrics("arthouse")
		engineOpts = append(engineOpts, engine.WithMetrics(pm))

		mux := http.NewServeMux()
		mux.Handle("/metrics", pm.Handler())
		srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "addr", addr, "error", err)
			}
		}()
		slog.Info("serving metrics", "addr", addr)
	}

	n, err := openNode(ctx, opts.Config, engineOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open node", err)
	}
	defer func() {
		if closeErr := n.Close(); closeErr != nil {
			slog.Error("error closing node", "error", closeErr)
		}
	}()

	done := make(chan error, 1)
	go func() { done <- n.engine.Run(ctx) }()

	submitted, skipped, readErr := feed(ctx, n.engine, r)
	n.engine.Stop()
	runErr := <-done

	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown", "error", err)
		}
	}

	slog.Info("engine stopped", "submitted", submitted, "skipped", skipped, "seq", n.engine.Clock().Current())

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", runErr)
	}
	if readErr != nil {
		return WrapExitError(ExitCommandError, "failed to read input", readErr)
	}
	return nil
}

// feed submits one Tx per non-empty input line. Lines that do not decode
// are logged and skipped.
func feed(ctx context.Context, eng *engine.Engine, r io.Reader) (submitted, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		if ctx.Err() != nil {
			return submitted, skipped, nil
		}
		data := scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		var tx engine.Tx
		if err := json.Unmarshal(data, &tx); err != nil {
			slog.Error("skipping malformed request", "line", line, "error", err)
			skipped++
			continue
		}
		if err := eng.Submit(tx); err != nil {
			if ctx.Err() != nil {
				return submitted, skipped, nil
			}
			return submitted, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		submitted++
	}
	return submitted, skipped, scanner.Err()
}
