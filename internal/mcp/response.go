package mcp

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	mierrors "github.com/standardbeagle/magentointel/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse reports a tool failure inside the result with IsError
// set, so the client sees it rather than a protocol error
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}
	if errType := mierrors.TypeOf(err); errType != mierrors.ErrorTypeInternal {
		errorData["type"] = string(errType)
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}
