// Package mcp provides an MCP (Model Context Protocol) server for siv.
// This allows AI agents to render Swift sources through MCP tools instead of
// CLI commands.
package mcp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/sourceisview/siv/internal/config"
	"github.com/sourceisview/siv/internal/exclude"
	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/output"
	"github.com/sourceisview/siv/internal/pipeline"
	"github.com/sourceisview/siv/internal/render"
)

// sourceName labels results rendered from inline source.
const sourceName = "<source>"

// Server wraps the MCP server with siv-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	renderer     *pipeline.Renderer
	settings     *config.Config
	root         string
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	log          *zap.Logger
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools    []string           // Which tools to expose (empty = all)
	Timeout  time.Duration      // Inactivity timeout (0 = no timeout)
	Root     string             // Directory relative paths resolve against (default ".")
	Settings *config.Config     // Loaded project config (default: loaded from Root)
	Renderer *pipeline.Renderer // Renderer to use (default: uncached, from Settings)
}

// AllTools lists all available tools
var AllTools = []string{"siv_render", "siv_entities"}

// New creates a new MCP server for siv
func New(cfg Config) (*Server, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolving root")
	}

	settings := cfg.Settings
	if settings == nil {
		settings, err = config.Load(root)
		if err != nil {
			return nil, err
		}
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = pipeline.New(
			pipeline.WithWorkers(settings.Scan.Workers),
			pipeline.WithRenderOptions(render.Options{Banner: settings.Render.BannerEnabled()}),
		)
	}

	mcpServer := server.NewMCPServer(
		"siv",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		renderer:     renderer,
		settings:     settings,
		root:         root,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
		log:          logger.Named("mcp"),
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, errors.Wrapf(err, "failed to register tool %s", toolName)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "siv_render":
		return s.registerRenderTool()
	case "siv_entities":
		return s.registerEntitiesTool()
	default:
		return errors.Newf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	s.log.Info("serving MCP over stdio", zap.Strings("tools", s.ListTools()))
	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			s.log.Warn("exiting after inactivity", zap.Duration("timeout", s.timeout))
			logger.Sync()
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the registered tools, sorted by name
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

const (
	renderDescription   = "Render Swift source as a grid of cells. Pass a file or directory path, or inline source."
	entitiesDescription = "Show the translated entity model of Swift source: names, kinds, generics and predicates."
	pathDescription     = "Swift file or directory, relative to the project root"
	sourceDescription   = "Inline Swift source; used instead of path"
	formatDescription   = "Output format: text, yaml, json (default: project config)"
)

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"siv_render": {
		Name:        "siv_render",
		Description: renderDescription,
		Parameters: []ParameterSchema{
			{Name: "path", Type: "string", Description: pathDescription},
			{Name: "source", Type: "string", Description: sourceDescription},
			{Name: "format", Type: "string", Description: formatDescription},
		},
	},
	"siv_entities": {
		Name:        "siv_entities",
		Description: entitiesDescription,
		Parameters: []ParameterSchema{
			{Name: "path", Type: "string", Description: pathDescription},
			{Name: "source", Type: "string", Description: sourceDescription},
			{Name: "format", Type: "string", Description: formatDescription},
		},
	},
}

// ToolSchemas returns the schema of every available tool, in AllTools order.
func ToolSchemas() []ToolSchema {
	schemas := make([]ToolSchema, 0, len(AllTools))
	for _, name := range AllTools {
		schemas = append(schemas, toolSchemaRegistry[name])
	}
	return schemas
}

// GetToolSchemas returns schemas for all registered tools, sorted by name.
func (s *Server) GetToolSchemas() []ToolSchema {
	names := s.ListTools()
	schemas := make([]ToolSchema, 0, len(names))
	for _, name := range names {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the formatted result or an error.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", errors.Newf("unknown tool: %s", name)
	}

	path, _ := args["path"].(string)
	source, _ := args["source"].(string)
	format, _ := args["format"].(string)

	start := time.Now()
	var (
		result string
		err    error
	)
	switch name {
	case "siv_render":
		result, err = s.executeRender(ctx, path, source, format)
	case "siv_entities":
		result, err = s.executeEntities(ctx, path, source, format)
	default:
		return "", errors.Newf("unknown tool: %s", name)
	}

	s.log.Debug("tool call",
		zap.String(logger.FieldTool, name),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()),
		zap.Error(err),
	)
	return result, err
}

func (s *Server) registerRenderTool() error {
	tool := mcp.NewTool("siv_render",
		mcp.WithDescription(renderDescription),
		mcp.WithString("path",
			mcp.Description(pathDescription),
		),
		mcp.WithString("source",
			mcp.Description(sourceDescription),
		),
		mcp.WithString("format",
			mcp.Description(formatDescription),
		),
	)

	s.mcpServer.AddTool(tool, s.handle("siv_render"))
	return nil
}

func (s *Server) registerEntitiesTool() error {
	tool := mcp.NewTool("siv_entities",
		mcp.WithDescription(entitiesDescription),
		mcp.WithString("path",
			mcp.Description(pathDescription),
		),
		mcp.WithString("source",
			mcp.Description(sourceDescription),
		),
		mcp.WithString("format",
			mcp.Description(formatDescription),
		),
	)

	s.mcpServer.AddTool(tool, s.handle("siv_entities"))
	return nil
}

// handle adapts CallTool to an MCP handler. Tool failures are reported as
// error results, not protocol errors.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.updateActivity()

		result, err := s.CallTool(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

func (s *Server) executeRender(ctx context.Context, path, source, format string) (string, error) {
	f, err := s.formatter(format)
	if err != nil {
		return "", err
	}

	var docs []output.GridDocument
	if source != "" {
		res, err := s.renderer.RenderSource(ctx, "", []byte(source))
		if err != nil {
			return "", err
		}
		docs = append(docs, output.NewGridDocument(sourceName, res.Grid))
	} else {
		files, err := s.resolve(path)
		if err != nil {
			return "", err
		}
		results, err := s.renderer.RenderFiles(ctx, files)
		if err != nil {
			return "", err
		}
		for _, res := range results {
			docs = append(docs, output.NewGridDocument(s.relative(res.Path), res.Grid))
		}
	}

	var buf bytes.Buffer
	if err := f.WriteGrids(&buf, docs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) executeEntities(ctx context.Context, path, source, format string) (string, error) {
	f, err := s.formatter(format)
	if err != nil {
		return "", err
	}

	var docs []output.EntitiesDocument
	if source != "" {
		entities, err := s.renderer.Entities(ctx, sourceName, []byte(source))
		if err != nil {
			return "", err
		}
		docs = append(docs, output.NewEntitiesDocument(sourceName, entities))
	} else {
		files, err := s.resolve(path)
		if err != nil {
			return "", err
		}
		for _, file := range files {
			entities, err := s.renderer.EntitiesFile(ctx, file)
			if err != nil {
				return "", err
			}
			docs = append(docs, output.NewEntitiesDocument(s.relative(file), entities))
		}
	}

	var buf bytes.Buffer
	if err := f.WriteEntities(&buf, docs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatter returns the formatter for name, defaulting to the configured one.
func (s *Server) formatter(name string) (output.Formatter, error) {
	if name == "" {
		name = s.settings.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.GetFormatter(format, output.Options{
		CellWidth: s.settings.Render.CellWidth,
		Uppercase: s.settings.Render.UppercaseEnabled(),
	})
}

// resolve turns a path argument into the files to render. Directories are
// walked with the configured extensions and exclude patterns.
func (s *Server) resolve(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New("path or source parameter is required")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)
	if !s.contains(path) {
		return nil, errors.Newf("path %s is outside the project root", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	files, err := exclude.CollectProject(path, s.settings.Scan.Extensions, s.settings.Scan.Exclude)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Newf("no Swift files under %s", path)
	}
	return files, nil
}

// contains reports whether path lies at or below the server root.
func (s *Server) contains(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// relative reports path relative to the server root when it lies inside it.
func (s *Server) relative(path string) string {
	if !s.contains(path) {
		return path
	}
	rel, _ := filepath.Rel(s.root, path)
	return rel
}
