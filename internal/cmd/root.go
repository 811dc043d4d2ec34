// Package cmd contains all CLI commands for siv.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sourceisview/siv/internal/config"
	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/output"
)

var (
	// Version is the current version of siv
	Version = "0.1.0"

	// Global flags
	verbosity    int
	logJSON      bool
	configPath   string
	forAgents    bool
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "siv",
	Short: "Render Swift declarations as a grid of cells",
	Long: `siv (source is view) reads Swift source and renders every declaration as
rows of short tokens: names, kinds, modifiers, generic constraints and the
types a declaration takes, returns or has.

Output Format:
  text (default) lays the cells out in aligned columns, upper-cased.
  yaml and json emit {file, rows} documents with the raw cell values.

Main capabilities:
  - Render files or whole directories of Swift source
  - Inspect the entity model behind a rendering
  - Re-render on save with siv watch
  - Serve both operations to AI agents over MCP

Global Flags:
  --format    Output format: text | yaml | json (default: from .siv/config.yaml)
  -v          Log verbosity (-v info, -vv debug); logs go to stderr

Examples:
  siv render Sources/App/Box.swift    # Render one file
  siv render Sources/                 # Render every Swift file under a directory
  siv entities Box.swift --format yaml
  siv watch Sources/                  # Re-render files as they change
  siv serve --mcp                     # Start the MCP server

See 'siv <command> --help' for command-specific options.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(verbosity, logJSON)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "siv:", err)
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .siv/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "Output format (text|yaml|json)")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")

	// Set custom help function to intercept --for-agents flag
	originalHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if forAgents {
			outputAgentHelp(cmd)
			return
		}
		originalHelp(cmd, args)
	})
}

// loadSettings loads the project configuration: the --config file when given,
// otherwise .siv/config.yaml found from the working directory.
func loadSettings() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "get working directory")
	}
	return config.Load(cwd)
}

// resolveFormat returns the --format flag, or the configured format.
func resolveFormat(settings *config.Config) (output.Format, error) {
	name := outputFormat
	if name == "" {
		name = settings.Output.Format
	}
	return output.ParseFormat(name)
}

// newFormatter builds the formatter selected by flags and settings.
func newFormatter(settings *config.Config) (output.Formatter, error) {
	format, err := resolveFormat(settings)
	if err != nil {
		return nil, err
	}
	return output.GetFormatter(format, output.Options{
		CellWidth: settings.Render.CellWidth,
		Uppercase: settings.Render.UppercaseEnabled(),
	})
}

// configDir returns the .siv directory for the project, next to --config
// when one is given.
func configDir() (string, error) {
	if configPath != "" {
		return filepath.Dir(configPath), nil
	}
	return config.FindConfigDir(".")
}

// CommandInfo represents a command for agent discovery
type CommandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
}

// FlagInfo represents a command flag for agent discovery
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// outputAgentHelp outputs machine-readable JSON describing all commands
func outputAgentHelp(cmd *cobra.Command) {
	root := buildCommandInfo(cmd.Root())

	doc := map[string]interface{}{
		"version":      Version,
		"commands":     root.Subcommands,
		"global_flags": root.Flags,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(doc)
}

// buildCommandInfo recursively builds command information for agent discovery
func buildCommandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		info.Flags = append(info.Flags, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}

	// Split Example by newline and drop empty lines
	if cmd.Example != "" {
		for _, line := range strings.Split(cmd.Example, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				info.Examples = append(info.Examples, trimmed)
			}
		}
	}

	return info
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (as in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
