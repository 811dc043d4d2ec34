package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/sourceisview/siv/internal/cache"
	"github.com/sourceisview/siv/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .siv directory, config and render cache",
	Long: `Initialize the .siv directory in the current directory.

This writes .siv/config.yaml with the default settings and creates the
render cache at .siv/cache.db. Commands run anywhere below the directory
pick the config up.

Examples:
  siv init          # Initialize in current directory
  siv init --force  # Reinitialize (overwrites config and clears the cache)`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if .siv already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "get working directory")
	}
	return initProject(cmd, cwd, initForce)
}

// initProject creates dir/.siv with a default config and an empty cache.
func initProject(cmd *cobra.Command, dir string, force bool) error {
	out := cmd.OutOrStdout()
	sivDir := filepath.Join(dir, config.ConfigDirName)
	cfgPath := filepath.Join(sivDir, config.ConfigFileName)
	relPath, _ := filepath.Rel(dir, sivDir)

	_, err := os.Stat(cfgPath)
	switch {
	case err == nil:
		if !force {
			fmt.Fprintf(out, "Already initialized at %s\n", relPath)
			return nil
		}
		if err := os.Remove(cfgPath); err != nil {
			return errors.Wrap(err, "removing existing config")
		}
	case !os.IsNotExist(err):
		return errors.Wrap(err, "checking config path")
	}

	if _, err := config.SaveDefault(dir); err != nil {
		return err
	}

	c, err := cache.Open(sivDir, 0)
	if err != nil {
		return errors.Wrap(err, "initializing cache")
	}
	defer c.Close()
	if force {
		if err := c.Clear(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Initialized siv at %s\n", relPath)
	return nil
}
