package mcp

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallTool invokes a tool handler in process, bypassing the stdio
// transport. An IsError result is returned as a Go error carrying the
// response text.
func (s *Server) CallTool(toolName string, params map[string]interface{}) (string, error) {
	ctx := context.Background()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}
	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      toolName,
			Arguments: paramsJSON,
		},
	}

	var result *mcp.CallToolResult
	switch toolName {
	case "complete":
		result, err = s.handleComplete(ctx, req)
	case "resolve_path":
		result, err = s.handleResolvePath(ctx, req)
	case "info":
		result, err = s.handleInfo(ctx, req)
	default:
		return "", fmt.Errorf("unknown tool: %s", toolName)
	}
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Content) == 0 {
		return "", nil
	}

	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("unexpected content type %T", result.Content[0])
	}
	if result.IsError {
		return "", fmt.Errorf("MCP error: %s", text.Text)
	}
	return text.Text, nil
}
