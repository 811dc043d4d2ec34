// Package main is the entry point for the siv CLI tool.
package main

import (
	"github.com/sourceisview/siv/internal/cmd"
)

func main() {
	cmd.Execute()
}
