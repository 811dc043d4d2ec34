package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/sourceisview/siv/internal/output"
)

// entitiesCmd represents the siv entities command
var entitiesCmd = &cobra.Command{
	Use:   "entities <file>...",
	Short: "Show the entity model behind a rendering",
	Long: `Show the translated entities of Swift files: name, kind, generic arguments
and requirements, descriptors, predicates and children.

Declarations that cannot be translated are missing from the output; run
with -vv to see why each one was dropped.`,
	Example: `  siv entities Sources/App/Box.swift
  siv entities Box.swift --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEntities,
}

var entitiesOutput string

func init() {
	rootCmd.AddCommand(entitiesCmd)
	entitiesCmd.Flags().StringVarP(&entitiesOutput, "output", "o", "", "Write output to a file instead of stdout")
}

func runEntities(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	formatter, err := newFormatter(settings)
	if err != nil {
		return err
	}

	files, err := collectFiles(args, settings)
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := newRenderer(settings, false)
	if err != nil {
		return err
	}
	defer closeRenderer()

	docs := make([]output.EntitiesDocument, 0, len(files))
	for _, file := range files {
		entities, err := renderer.EntitiesFile(commandContext(cmd), file)
		if err != nil {
			return err
		}
		docs = append(docs, output.NewEntitiesDocument(file, entities))
	}

	return writeOutput(cmd, entitiesOutput, func(w io.Writer) error {
		return formatter.WriteEntities(w, docs)
	})
}
