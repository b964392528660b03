package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelf-sh/shelf/gitremote"
	"github.com/shelf-sh/shelf/term"
	"github.com/shelf-sh/shelf/tracker"
)

var errNoRemote = errors.New("no remote configured: pass --remote or set remote.url")

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push tracked files to the remote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RemoteURL == "" {
			return errNoRemote
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		remote, err := gitremote.New(cfg.MirrorDir)
		if err != nil {
			return err
		}

		coord := tracker.NewCoordinator(a.rec, remote, term.NewPrompter())
		results, err := coord.Push(rootCtx, cfg.RemoteURL)
		printSyncResults(results)
		return err
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull tracked files from the remote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RemoteURL == "" {
			return errNoRemote
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		remote, err := gitremote.New(cfg.MirrorDir)
		if err != nil {
			return err
		}

		coord := tracker.NewCoordinator(a.rec, remote, term.NewPrompter())
		results, err := coord.Pull(rootCtx, cfg.RemoteURL)
		printSyncResults(results)
		return err
	},
}

func printSyncResults(results []tracker.SyncResult) {
	for _, r := range results {
		fmt.Printf("%-15s %s\n", r.Action, r.Path)
	}
}
