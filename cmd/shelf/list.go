package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listDirtyOnly bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked files with their status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		listing, err := a.rec.List(listDirtyOnly)
		if err != nil {
			return err
		}
		if len(listing) == 0 {
			if listDirtyOnly {
				fmt.Println("everything is clean")
			} else {
				fmt.Println("no files tracked yet; try `shelf suggest`")
			}
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATUS\tPATH\tSAVED")
		for _, es := range listing {
			saved := time.Unix(0, es.Entry.SavedAt).Format("2006-01-02 15:04")
			fmt.Fprintf(w, "%s\t%s\t%s\n", es.Status, es.Entry.Path, saved)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listDirtyOnly, "dirty", "d", false, "only show dirty or missing files")
}
