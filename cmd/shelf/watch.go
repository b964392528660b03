package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelf-sh/shelf/tracker"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch tracked files and report status changes live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		monitor := tracker.NewMonitor(a.rec)
		events := monitor.Events().Subscribe()

		go func() {
			for ev := range events {
				fmt.Printf("%s  %-8s %s\n", ev.At.Format(time.TimeOnly), ev.Status, ev.Path)
			}
		}()

		fmt.Println("watching tracked files (ctrl-c to stop)")
		if err := monitor.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
