package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ErrorPrefix starts the text of every error-flagged tool result
const ErrorPrefix = "Error: "

// MissingArgumentError reports a required tool argument that is absent or empty
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("required argument %q not found", e.Name)
}

// jsonOperation is the core of a tool: fetch something and return its JSON
type jsonOperation func(ctx context.Context, request mcp.CallToolRequest) (json.RawMessage, error)

// jsonTool wraps op so that success yields one text block with the
// pretty-printed body and any failure yields an error-flagged "Error: ..."
// text block. The returned handler never returns a Go error.
func jsonTool(op jsonOperation) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, err := op(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(ErrorPrefix + err.Error()), nil
		}

		text, err := formatJSON(body)
		if err != nil {
			return mcp.NewToolResultError(ErrorPrefix + err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// handler builds the passthrough operation for a backend tool
func (s *Server) handler(t backendTool) server.ToolHandlerFunc {
	return jsonTool(func(ctx context.Context, request mcp.CallToolRequest) (json.RawMessage, error) {
		args := request.GetArguments()

		path, err := expandPath(t.path, t.pathParams, args)
		if err != nil {
			return nil, err
		}

		var params map[string]string
		for _, p := range t.queryParams {
			if v, ok := argString(args, p.name); ok {
				if params == nil {
					params = make(map[string]string, len(t.queryParams))
				}
				params[p.name] = v
			}
		}

		return s.api.Get(ctx, path, params)
	})
}

// expandPath substitutes each {name} placeholder with the path-escaped argument
func expandPath(template string, params []param, args map[string]any) (string, error) {
	path := template
	for _, p := range params {
		v, ok := argString(args, p.name)
		if !ok {
			return "", &MissingArgumentError{Name: p.name}
		}
		path = strings.ReplaceAll(path, "{"+p.name+"}", url.PathEscape(v))
	}
	return path, nil
}

// argString returns the argument as a string. Numbers and booleans are
// accepted in their canonical form; missing, null and empty values are absent.
func argString(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case bool:
		s = strconv.FormatBool(v)
	case json.Number:
		s = v.String()
	default:
		return "", false
	}
	return s, s != ""
}

// handleCallHistory lists recent journal records
func (s *Server) handleCallHistory(ctx context.Context, request mcp.CallToolRequest) (json.RawMessage, error) {
	limit := 0
	if v, ok := argString(request.GetArguments(), "limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("limit must be a positive integer, got %q", v)
		}
		limit = n
	}

	records, err := s.journal.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read call history: %w", err)
	}
	return json.Marshal(records)
}
