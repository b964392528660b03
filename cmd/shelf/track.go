package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelf-sh/shelf/tracker"
)

var trackForce bool

var trackCmd = &cobra.Command{
	Use:   "track <path>...",
	Short: "Start tracking one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		if trackForce {
			for _, path := range args {
				entry, err := a.rec.Retrack(path)
				if err != nil {
					return err
				}
				fmt.Printf("tracked %s\n", entry.Path)
			}
			return nil
		}

		if len(args) == 1 {
			entry, err := a.rec.Track(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("tracked %s\n", entry.Path)
			return nil
		}

		failed := 0
		for _, res := range a.rec.TrackAll(args) {
			if res.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", res.Path, res.Err)
				continue
			}
			fmt.Printf("tracked %s\n", res.Entry.Path)
		}
		if failed == len(args) {
			return errors.New("no files were tracked")
		}
		return nil
	},
}

var untrackRecursive bool

var untrackCmd = &cobra.Command{
	Use:   "untrack <path>...",
	Short: "Stop tracking files (or a whole directory with -r)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		for _, path := range args {
			n, err := a.rec.Untrack(path, untrackRecursive)
			if err != nil {
				return err
			}
			if untrackRecursive && n == 0 {
				fmt.Printf("nothing tracked under %s\n", path)
				continue
			}
			fmt.Printf("untracked %d file(s)\n", n)
		}
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <path>...",
	Short: "Accept current file content as the new baseline",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		for _, path := range args {
			entry, err := a.rec.Save(path)
			if err != nil {
				return err
			}
			fmt.Printf("saved %s (%s)\n", entry.Path, shortFP(entry.Fingerprint))
		}
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <path>...",
	Short: "Rewrite files from their saved baselines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		for _, path := range args {
			if err := a.rec.Restore(path); err != nil {
				if errors.Is(err, tracker.ErrNotTracked) {
					return err
				}
				return fmt.Errorf("restore %s: %w", path, err)
			}
			fmt.Printf("restored %s\n", path)
		}
		return nil
	},
}

func init() {
	trackCmd.Flags().BoolVarP(&trackForce, "force", "f", false, "re-track an already tracked file, replacing its baseline")
	untrackCmd.Flags().BoolVarP(&untrackRecursive, "recursive", "r", false, "untrack everything under a directory")
}

func shortFP(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
