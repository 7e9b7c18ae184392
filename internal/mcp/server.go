// Package mcp exposes the completion engine as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/magentointel/internal/config"
	"github.com/standardbeagle/magentointel/internal/debug"
	"github.com/standardbeagle/magentointel/internal/engine"
	"github.com/standardbeagle/magentointel/internal/version"
	"github.com/standardbeagle/magentointel/internal/watch"
)

// ServerName is reported to MCP clients
const ServerName = "magentointel-mcp-server"

// CompleteParams selects a cursor position either by byte offset or by
// 1-based line and column. Source is read from File when empty.
type CompleteParams struct {
	Source string `json:"source,omitempty"`
	File   string `json:"file,omitempty"`
	Offset *int   `json:"offset,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Prefix bool   `json:"prefix,omitempty"` // rank against the partially typed member name
}

type ResolvePathParams struct {
	Class string `json:"class"`
}

type InfoParams struct {
	Tool string `json:"tool,omitempty"`
}

// Server wraps an engine and an optional file watcher
type Server struct {
	server  *mcp.Server
	engine  *engine.Engine
	cfg     *config.Config
	watcher *watch.FileWatcher
}

// NewServer creates an MCP server for eng. When cfg enables watching and a
// Magento root is open, changed PHP files invalidate the engine caches.
func NewServer(eng *engine.Engine, cfg *config.Config) (*Server, error) {
	s := &Server{
		engine: eng,
		cfg:    cfg,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		}, nil),
	}
	s.registerTools()

	if cfg != nil && cfg.Watch.Enabled {
		if err := s.startWatcher(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) startWatcher() error {
	root, ok := s.engine.Root()
	if !ok {
		debug.LogMCP("not in a Magento project, file watching disabled\n")
		return nil
	}
	fw, err := watch.New(watch.Options{
		Debounce: s.cfg.WatchDebounce(),
		Exclude:  append([]string{filepath.Base(s.cfg.Project.CacheDir)}, watch.DefaultExclude...),
	}, func(path string, event watch.EventType) {
		debug.LogMCP("%s %s\n", event, path)
		s.engine.Invalidate(path)
	})
	if err != nil {
		return err
	}
	if err := fw.Start(root); err != nil {
		_ = fw.Stop()
		return err
	}
	s.watcher = fw
	s.engine.EnableLookupCache()
	return nil
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "Describe the available tools. Use 'info' for an overview or 'info <tool>' for details and 'info version' for the server version.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tool": {
					Type:        "string",
					Description: "Tool name to describe (complete, resolve_path, version)",
				},
			},
		},
	}, s.handleInfo)

	s.server.AddTool(&mcp.Tool{
		Name:        "complete",
		Description: "Member completions for the PHP access expression ending at a cursor in a Magento 1 source buffer. Entries carry a \"member\\tClass\" label and a snippet.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "Full buffer text; read from 'file' when omitted",
				},
				"file": {
					Type:        "string",
					Description: "Path of the PHP file holding the buffer",
				},
				"offset": {
					Type:        "integer",
					Description: "Cursor byte offset",
				},
				"line": {
					Type:        "integer",
					Description: "Cursor line (1-based), used when offset is omitted",
				},
				"column": {
					Type:        "integer",
					Description: "Cursor column in bytes (1-based), used with line",
				},
				"prefix": {
					Type:        "boolean",
					Description: "Treat the word before the cursor as a typed member prefix and rank by it",
				},
			},
		},
	}, s.handleComplete)

	s.server.AddTool(&mcp.Tool{
		Name:        "resolve_path",
		Description: "Source file of a Magento 1 class name, searched through the local, community, core and lib layers.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"class": {
					Type:        "string",
					Description: "Class name, e.g. Mage_Catalog_Model_Product",
				},
			},
			Required: []string{"class"},
		},
	}, s.handleResolvePath)
}

// Start serves MCP over stdio until ctx is canceled or the client leaves
func (s *Server) Start(ctx context.Context) error {
	debug.LogMCP("starting MCP server with stdio transport\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Shutdown stops the watcher and closes the engine
func (s *Server) Shutdown(ctx context.Context) error {
	debug.LogMCP("shutting down MCP server\n")
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			debug.LogMCP("error stopping watcher: %v\n", err)
		}
		s.watcher = nil
	}
	return s.engine.Close()
}
