package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/springjumps/springjumps/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and restore saved revisions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved revisions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, func(a *app) error {
			revs, err := a.history.ListRevisions(limit)
			if err != nil {
				return fmt.Errorf("listing revisions: %w", err)
			}
			if len(revs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No revisions recorded.")
				return nil
			}
			for _, rev := range revs {
				marker := ""
				if rev.NeedsRespring {
					marker = colorize(colorYellow, "  respring")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s%s\n",
					colorize(colorCyan, rev.ID),
					rev.CreatedAt.Local().Format(time.DateTime),
					marker,
				)
			}
			return nil
		})
	},
}

func getRevision(a *app, id string) (storage.Revision, error) {
	rev, err := a.history.GetRevision(id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Revision{}, fmt.Errorf("revision %s not found", id)
	}
	return rev, err
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the record saved in a revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			rev, err := getRevision(a, args[0])
			if err != nil {
				return err
			}
			record, err := rev.DecodeRecord()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		})
	},
}

var historyRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore and save the preferences from a revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			rev, err := getRevision(a, args[0])
			if err != nil {
				return err
			}
			record, err := rev.DecodeRecord()
			if err != nil {
				return err
			}
			a.prefs.Apply(record)
			return a.commit(cmd)
		})
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of revisions to list")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRestoreCmd)
}
