package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/magentointel/internal/debug"
	"github.com/standardbeagle/magentointel/internal/engine"
	mierrors "github.com/standardbeagle/magentointel/internal/errors"
	"github.com/standardbeagle/magentointel/internal/types"
	"github.com/standardbeagle/magentointel/internal/version"
	"github.com/standardbeagle/magentointel/pkg/pathutil"
)

// CompleteResponse is the payload of the complete tool. Reason names the
// non-fatal failure when Entries is empty.
type CompleteResponse struct {
	Class         string                  `json:"class,omitempty"`
	AccessContext string                  `json:"access_context,omitempty"`
	Path          string                  `json:"path,omitempty"`
	Entries       []types.CompletionEntry `json:"entries"`
	Reason        string                  `json:"reason,omitempty"`
}

func (s *Server) handleComplete(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params CompleteParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("complete", fmt.Errorf("invalid parameters: %w", err))
	}

	src := params.Source
	if src == "" && params.File != "" {
		content, err := os.ReadFile(params.File)
		if err != nil {
			return createErrorResponse("complete", err)
		}
		src = string(content)
	}

	offset, err := cursorOffset(src, params)
	if err != nil {
		return createErrorResponse("complete", err)
	}
	debug.LogMCP("complete at %d of %d bytes (prefix=%v)\n", offset, len(src), params.Prefix)

	if params.Prefix {
		entries, err := s.engine.CompleteAt(ctx, src, offset)
		if err != nil {
			return createErrorResponse("complete", err)
		}
		return createJSONResponse(CompleteResponse{Entries: entries})
	}

	res, err := s.engine.CompleteDetailed(ctx, src, offset)
	resp := CompleteResponse{
		Class:   res.Class.Name,
		Path:    res.Path,
		Entries: res.Entries,
	}
	if !res.Class.IsZero() {
		resp.AccessContext = res.Class.AccessContext.String()
	}
	if err != nil {
		var engineErr *mierrors.EngineError
		if !errors.As(err, &engineErr) || engineErr.IsFatal() {
			return createErrorResponse("complete", err)
		}
		if engineErr.Type == mierrors.ErrorTypeExternalToolUnavailable {
			debug.Warn(debug.ComponentTokenizer, err, "php tokenizer unavailable")
		}
		resp.Reason = string(engineErr.Type)
	}
	if resp.Entries == nil {
		resp.Entries = []types.CompletionEntry{}
	}
	return createJSONResponse(resp)
}

// cursorOffset picks the byte offset named by params
func cursorOffset(src string, params CompleteParams) (int, error) {
	if params.Offset != nil {
		if *params.Offset < 0 || *params.Offset > len(src) {
			return 0, fmt.Errorf("offset %d outside buffer of %d bytes", *params.Offset, len(src))
		}
		return *params.Offset, nil
	}
	if params.Line > 0 {
		return engine.OffsetAt(src, params.Line, params.Column)
	}
	return len(src), nil
}

func (s *Server) handleResolvePath(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ResolvePathParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("resolve_path", fmt.Errorf("invalid parameters: %w", err))
	}
	class := strings.TrimSpace(params.Class)
	if class == "" {
		return createErrorResponse("resolve_path", errors.New("class is required"))
	}

	path, err := s.engine.OpenClass(class)
	if err != nil {
		return createErrorResponse("resolve_path", err)
	}
	root, _ := s.engine.Root()
	return createJSONResponse(map[string]interface{}{
		"class":    class,
		"path":     path,
		"relative": pathutil.ToSlashRelative(path, root),
	})
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params InfoParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("info", fmt.Errorf("invalid parameters: %w", err))
		}
	}

	switch strings.ToLower(strings.TrimSpace(params.Tool)) {
	case "":
		root, ok := s.engine.Root()
		overview := map[string]interface{}{
			"server_name":    ServerName,
			"server_version": version.Version,
			"tools":          []string{"complete", "resolve_path", "info"},
			"magento_root":   root,
			"in_project":     ok,
		}
		if s.watcher != nil {
			overview["watch"] = s.watcher.GetStats()
		}
		return createJSONResponse(overview)

	case "version":
		return createJSONResponse(map[string]interface{}{
			"server_name":    ServerName,
			"server_version": version.String(),
			"build_id":       version.BuildID(),
			"go_version":     runtime.Version(),
			"platform":       runtime.GOOS + "/" + runtime.GOARCH,
		})

	case "complete":
		return createJSONResponse(map[string]interface{}{
			"name":        "complete",
			"description": "Completes the member access ending at the cursor",
			"parameters": map[string]string{
				"source": "buffer text (or 'file')",
				"offset": "cursor byte offset (or 'line' and 'column', 1-based)",
				"prefix": "rank against the word typed after -> or ::",
			},
			"examples": []string{
				`{"file": "app/code/local/Foo/Bar/Model/Baz.php", "line": 12, "column": 16}`,
				`{"source": "<?php Mage::getModel('catalog/product')->get", "prefix": true}`,
			},
			"reasons": []string{
				string(mierrors.ErrorTypeNotInMagentoProject),
				string(mierrors.ErrorTypeUnresolvedClass),
				string(mierrors.ErrorTypePathNotFound),
				string(mierrors.ErrorTypeMalformedSource),
				string(mierrors.ErrorTypeExternalToolUnavailable),
			},
		})

	case "resolve_path":
		return createJSONResponse(map[string]interface{}{
			"name":        "resolve_path",
			"description": "Finds the file declaring a class",
			"parameters":  map[string]string{"class": "class name"},
			"examples":    []string{`{"class": "Mage_Catalog_Model_Product"}`},
		})

	default:
		return createErrorResponse("info", fmt.Errorf("unknown tool %q", params.Tool))
	}
}

