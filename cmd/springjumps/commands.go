package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/springjumps/springjumps/internal/config"
	"github.com/springjumps/springjumps/internal/prefs"
	"github.com/springjumps/springjumps/internal/shortcut"
)

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withApp(cmd, func(a *app) error {
			return writeRecord(cmd.OutOrStdout(), a.prefs, format)
		})
	},
}

func init() {
	showCmd.Flags().String("format", "text", "output format: text, json, or yaml")
}

func writeRecord(w io.Writer, s *prefs.Store, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Record())
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(s.Record())
	case "text":
		snap := s.Snapshot()
		printStatus(w, prefs.KeyShowPageTitles, "%s", onOff(snap.ShowPageTitles))
		printStatus(w, prefs.KeyEnableJumpDock, "%s", onOff(snap.JumpDockEnabled))
		printStatus(w, prefs.KeyFirstRun, "%v", snap.FirstRun)
		printStatus(w, prefs.KeyShortcuts, "%d", len(snap.Shortcuts))
		writeShortcuts(w, snap.Shortcuts)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json, or yaml)", format)
	}
}

func writeShortcuts(w io.Writer, entries []shortcut.Entry) {
	for i, e := range entries {
		fmt.Fprintf(w, "    %s %s [%s]\n", colorize(colorCyan, fmt.Sprintf("%d.", i)), e.Name, onOff(e.Enabled))
	}
}

// --- set ---

var setCmd = &cobra.Command{
	Use:   "set <key> <true|false>",
	Short: "Set a boolean preference",
	Long: `Set a boolean preference.

Keys: ` + strings.Join(prefs.ToggleKeys(), ", ") + `

Examples:
  springjumps set enableJumpDock true
  springjumps set showPageTitles no --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		v, err := shortcut.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q", key, args[1])
		}
		return withApp(cmd, func(a *app) error {
			if err := a.prefs.SetToggle(key, v); err != nil {
				return err
			}
			return a.commit(cmd)
		})
	},
}

// --- reset ---

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the built-in defaults and save them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			a.prefs.Reset()
			return a.commit(cmd)
		})
	},
}

// --- export / import ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export preferences as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return withApp(cmd, func(a *app) error {
			data, err := yaml.Marshal(a.prefs.Record())
			if err != nil {
				return fmt.Errorf("encoding preferences: %w", err)
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			printSuccess("Preferences exported to %s", output)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import preferences from a YAML or JSON file",
	Long: `Import preferences from a YAML or JSON file.

Fields that are missing or malformed in the file keep their current value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		var record map[string]any
		if err := yaml.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		return withApp(cmd, func(a *app) error {
			a.prefs.Apply(record)
			return a.commit(cmd)
		})
	},
}

func init() {
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show tool configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "springjumps version %s\n", version)
	},
}
