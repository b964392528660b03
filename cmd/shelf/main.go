// Command shelf tracks configuration files scattered across the
// filesystem, detects drift from their saved baselines, and syncs them
// with a remote git repository.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/shelf-sh/shelf/tracker"
)

var (
	// Signal-aware context for graceful cancellation.
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// app bundles the store handle and reconciler behind explicit wiring;
// there is no ambient global store.
type app struct {
	db  *sql.DB
	rec *tracker.Reconciler
	fs  afero.Fs
}

// openApp opens the database and wires the reconciler over the OS
// filesystem.
func openApp() (*app, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = tracker.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	db, err := tracker.OpenDB(dbPath)
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	return &app{
		db:  db,
		rec: tracker.NewReconciler(tracker.NewStore(db), fs),
		fs:  fs,
	}, nil
}

func (a *app) close() {
	a.db.Close() //nolint:errcheck
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
