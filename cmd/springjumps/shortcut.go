package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var shortcutCmd = &cobra.Command{
	Use:     "shortcut",
	Aliases: []string{"shortcuts"},
	Short:   "Manage shortcut entries",
}

var shortcutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shortcuts in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			entries := a.prefs.Shortcuts()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shortcuts configured.")
				return nil
			}
			writeShortcuts(cmd.OutOrStdout(), entries)
			return nil
		})
	},
}

var shortcutGetCmd = &cobra.Command{
	Use:   "get <index>",
	Short: "Show the shortcut at a position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[0])
		}
		return withApp(cmd, func(a *app) error {
			e, err := a.prefs.Shortcut(i)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]\n", e.Name, onOff(e.Enabled))
			return nil
		})
	},
}

var shortcutAddCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Append shortcuts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		disabled, _ := cmd.Flags().GetBool("disabled")
		return withApp(cmd, func(a *app) error {
			for _, name := range args {
				if _, err := a.prefs.AddShortcut(name); err != nil {
					return err
				}
				if disabled {
					if err := a.prefs.SetShortcutEnabled(name, false); err != nil {
						return err
					}
				}
			}
			return a.commit(cmd)
		})
	},
}

var shortcutRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a shortcut",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if err := a.prefs.RemoveShortcut(args[0]); err != nil {
				return err
			}
			return a.commit(cmd)
		})
	},
}

func setEnabledCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.prefs.SetShortcutEnabled(args[0], enabled); err != nil {
					return err
				}
				return a.commit(cmd)
			})
		},
	}
}

var shortcutRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a shortcut",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if err := a.prefs.RenameShortcut(args[0], args[1]); err != nil {
				return err
			}
			return a.commit(cmd)
		})
	},
}

var shortcutMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a shortcut to another position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[0])
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}
		return withApp(cmd, func(a *app) error {
			if err := a.prefs.MoveShortcut(from, to); err != nil {
				return err
			}
			return a.commit(cmd)
		})
	},
}

func init() {
	shortcutAddCmd.Flags().Bool("disabled", false, "add the shortcuts switched off")

	shortcutCmd.AddCommand(shortcutListCmd)
	shortcutCmd.AddCommand(shortcutGetCmd)
	shortcutCmd.AddCommand(shortcutAddCmd)
	shortcutCmd.AddCommand(shortcutRemoveCmd)
	shortcutCmd.AddCommand(setEnabledCmd("enable", "Switch a shortcut on", true))
	shortcutCmd.AddCommand(setEnabledCmd("disable", "Switch a shortcut off", false))
	shortcutCmd.AddCommand(shortcutRenameCmd)
	shortcutCmd.AddCommand(shortcutMoveCmd)
}
