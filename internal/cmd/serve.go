package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/mcp"
)

// pidFileName is written to the .siv directory while the server runs.
const pidFileName = "serve.pid"

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

Agents call tools on the running server instead of spawning siv for every
file. Paths given to the tools resolve against the working directory.

Available Tools:
  siv_render     Render a file, directory or inline source as cell grids
  siv_entities   Show the entity model behind a rendering

Examples:
  siv serve --mcp                       # Start with all tools
  siv serve --mcp --tools render        # Expose siv_render only
  siv serve --mcp --timeout 30m         # Auto-stop after 30 minutes idle
  siv serve --status                    # Check if server is running
  siv serve --stop                      # Stop running server
  siv serve --list-tools                # Show available tools`,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if serveListTools {
		fmt.Fprintln(out, "Available MCP tools:")
		fmt.Fprintln(out)
		for _, schema := range mcp.ToolSchemas() {
			fmt.Fprintf(out, "  %-14s %s\n", schema.Name, schema.Description)
		}
		return nil
	}

	if serveStatus {
		return checkServerStatus(cmd)
	}

	if serveStop {
		return stopServer(cmd)
	}

	if !serveMCP {
		return errors.New("use --mcp to start the MCP server, or --help for usage")
	}

	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return errors.Wrap(err, "invalid timeout")
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := newRenderer(settings, true)
	if err != nil {
		return err
	}
	defer closeRenderer()

	server, err := mcp.New(mcp.Config{
		Tools:    parseToolList(serveTools),
		Timeout:  timeout,
		Settings: settings,
		Renderer: renderer,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create MCP server")
	}

	log := logger.Named("serve")

	if err := writePIDFile(); err != nil {
		log.Warn("could not write PID file", zap.Error(err))
	}
	defer removePIDFile()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		closeRenderer()
		removePIDFile()
		logger.Sync()
		os.Exit(0)
	}()

	// stdout carries the MCP protocol; everything else goes to the logger
	log.Info("starting MCP server",
		zap.Strings("tools", server.ListTools()),
		zap.Duration("timeout", timeout),
	)

	return server.ServeStdio()
}

// parseToolList splits a --tools value, allowing the short form
// (render -> siv_render).
func parseToolList(s string) []string {
	var tools []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tools = append(tools, normalizeToolName(t))
	}
	return tools
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, pidFileName), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

// readPID returns the PID recorded in the PID file, or 0 when none is.
func readPID() (int, error) {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return 0, errors.New("invalid PID file")
	}
	return pid, nil
}

func checkServerStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := readPID()
	if err != nil {
		fmt.Fprintf(out, "Status: not running (%v)\n", err)
		return nil
	}
	if pid == 0 {
		fmt.Fprintln(out, "Status: not running")
		return nil
	}

	// On Unix FindProcess always succeeds; signal 0 checks the process exists
	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.Signal(0))
	}
	if err != nil {
		fmt.Fprintln(out, "Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Fprintf(out, "Status: running (PID %d)\n", pid)
	return nil
}

func stopServer(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := readPID()
	if err != nil {
		return err
	}
	if pid == 0 {
		fmt.Fprintln(out, "No server running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.SIGTERM)
	}
	if err != nil {
		removePIDFile()
		fmt.Fprintln(out, "Server already stopped")
		return nil
	}

	fmt.Fprintf(out, "Stopped server (PID %d)\n", pid)
	return nil
}
