package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sourceisview/siv/internal/mcp"
)

// toolPrefix is the namespace of every MCP tool name.
const toolPrefix = "siv_"

var (
	callList bool
	callPipe bool
)

var callCmd = &cobra.Command{
	Use:   "call [tool] [json-args]",
	Short: "Call an MCP tool once from the command line",
	Long: `Call a siv MCP tool with JSON arguments, without starting a server.

Modes:
  siv call --list                         List all tools and parameters
  siv call <tool> '{"key":"value"}'       Call a tool with JSON args
  siv call --pipe                         Read JSON lines from stdin

Tool names accept shorthand: "render" is equivalent to "siv_render".

Examples:
  siv call --list
  siv call render '{"path":"Sources/App/Box.swift"}'
  siv call entities '{"source":"struct Box<T> {}","format":"json"}'
  echo '{"tool":"siv_render","args":{"path":"Sources"}}' | siv call --pipe`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callList, "list", false, "List all available tools and their parameters")
	callCmd.Flags().BoolVar(&callPipe, "pipe", false, "Read JSON lines from stdin (pipe mode)")
}

func runCall(cmd *cobra.Command, args []string) error {
	if callList {
		return writeToolList(cmd.OutOrStdout(), outputFormat)
	}
	if !callPipe && len(args) == 0 {
		return errors.New("tool name required (run 'siv call --list' to see available tools)")
	}

	srv, closeServer, err := newCallServer()
	if err != nil {
		return err
	}
	defer closeServer()

	if callPipe {
		return runCallPipe(cmd, srv, cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return runCallSingle(cmd, srv, args)
}

// newCallServer builds an in-process MCP server with every tool.
func newCallServer() (*mcp.Server, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	renderer, closeRenderer, err := newRenderer(settings, true)
	if err != nil {
		return nil, nil, err
	}
	srv, err := mcp.New(mcp.Config{
		Tools:    mcp.AllTools,
		Settings: settings,
		Renderer: renderer,
	})
	if err != nil {
		closeRenderer()
		return nil, nil, errors.Wrap(err, "create server")
	}
	return srv, closeRenderer, nil
}

// writeToolList writes the tool schemas as yaml (default), json or jsonl.
func writeToolList(w io.Writer, format string) error {
	schemas := mcp.ToolSchemas()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schemas)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, s := range schemas {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(schemas)
	}
}

func runCallSingle(cmd *cobra.Command, srv *mcp.Server, args []string) error {
	toolName := normalizeToolName(args[0])

	toolArgs := make(map[string]interface{})
	if len(args) >= 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return errors.Wrap(err, "invalid JSON args")
		}
	}

	result, err := srv.CallTool(commandContext(cmd), toolName, toolArgs)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

// pipeRequest is the JSON format for pipe mode input.
type pipeRequest struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// pipeResponse is the JSON format for pipe mode output.
type pipeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// runCallPipe answers one JSON request per input line with one JSON
// response line. A failed request produces an error response, not an exit.
func runCallPipe(cmd *cobra.Command, srv *mcp.Server, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	// Allow larger lines (1MB)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req pipeRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			enc.Encode(pipeResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		if req.Args == nil {
			req.Args = make(map[string]interface{})
		}

		result, err := srv.CallTool(commandContext(cmd), normalizeToolName(req.Tool), req.Args)
		if err != nil {
			enc.Encode(pipeResponse{Error: err.Error()})
			continue
		}

		// JSON results pass through; anything else becomes a JSON string
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(result), &raw); err != nil {
			b, _ := json.Marshal(result)
			raw = b
		}
		enc.Encode(pipeResponse{Result: raw})
	}

	return scanner.Err()
}

// normalizeToolName converts shorthand names to full tool names.
// "render" -> "siv_render", "siv_render" -> "siv_render"
func normalizeToolName(name string) string {
	if !strings.HasPrefix(name, toolPrefix) {
		return toolPrefix + name
	}
	return name
}
