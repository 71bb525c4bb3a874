// Command kvs-server starts a kvs TCP server backed by the log-structured
// engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wolfapple/kvs/engine"
	"github.com/wolfapple/kvs/pool"
	"github.com/wolfapple/kvs/server"
)

const (
	defaultAddr = "127.0.0.1:4000"
	defaultDir  = "."
)

func main() {
	if err := buildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCLI() *cobra.Command {
	var addr string
	var engineName string
	var dir string
	var workers int

	cmd := &cobra.Command{
		Use:     "kvs-server",
		Short:   "Start a kvs key-value store server",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, engineName, dir, workers)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", defaultAddr, "IP:PORT to listen on")
	cmd.Flags().StringVarP(&engineName, "engine", "e", "", "kvs | sled (defaults to the data directory's persisted engine, or kvs)")
	cmd.Flags().StringVarP(&dir, "dir", "d", defaultDir, "data directory")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "worker pool size")

	return cmd
}

func run(addr, engineName, dir string, workers int) error {
	if workers < 1 {
		return fmt.Errorf("kvs-server: --workers must be at least 1, got %d", workers)
	}

	kind, err := resolveEngineKind(dir, engineName)
	if err != nil {
		return err
	}

	// Check the persisted marker before rejecting an unimplemented engine
	// kind, so a genuine mismatch against data written by a different
	// engine is reported as ErrEngineMismatch rather than masked by the
	// "not implemented" error below (spec scenario 5).
	if err := engine.CheckKind(dir, kind); err != nil {
		return err
	}

	if kind != engine.KindKVS {
		return fmt.Errorf("kvs-server: engine %q is not implemented by this binary; its contract is just the engine.Engine interface", kind)
	}

	eng, err := engine.Open(dir)
	if err != nil {
		return fmt.Errorf("kvs-server: open engine: %w", err)
	}
	defer eng.Close()

	workerPool := pool.New(workers)
	defer workerPool.Close()

	srv := server.New(eng, workerPool)
	fmt.Printf("kvs-server: starting on %s (engine=%s, workers=%d)\n", addr, kind, workers)
	return srv.Run(addr)
}

// resolveEngineKind picks the engine to use: an explicit --engine flag, or
// failing that, the directory's previously persisted choice, or failing
// that, the default kvs engine.
func resolveEngineKind(dir, explicit string) (engine.Kind, error) {
	if explicit != "" {
		return engine.Kind(explicit), nil
	}
	persisted, ok, err := engine.ReadKind(dir)
	if err != nil {
		return "", fmt.Errorf("kvs-server: read persisted engine kind: %w", err)
	}
	if ok {
		return persisted, nil
	}
	return engine.KindKVS, nil
}
