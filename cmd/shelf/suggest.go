package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shelf-sh/shelf/term"
	"github.com/shelf-sh/shelf/tracker"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Discover untracked config files and pick some to track",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		scanner := tracker.NewScanner(a.fs)
		rules := tracker.ScanRules{
			MaxFileSize: cfg.MaxFileSize,
			Ignore:      tracker.LoadIgnoreList(a.fs, shelfIgnorePath()),
		}

		results, warnings, err := a.rec.Suggest(scanner, cfg.ScanRoots, rules, term.NewPrompter())
		if err != nil {
			return err
		}

		for _, w := range warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %s: %v\n", w.Path, w.Err)
		}
		if len(results) == 0 {
			fmt.Println("nothing selected")
			return nil
		}
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", res.Path, res.Err)
				continue
			}
			fmt.Printf("tracked %s\n", res.Entry.Path)
		}
		return nil
	},
}

func shelfIgnorePath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, ".shelfignore")
	}
	return ""
}
