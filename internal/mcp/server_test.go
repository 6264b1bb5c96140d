package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataops-studio/dataops-mcp/internal/client"
	"github.com/dataops-studio/dataops-mcp/internal/journal"
)

type recordedRequest struct {
	Path     string
	RawQuery string
}

// testBackend is an httptest server that remembers every request it served
type testBackend struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newTestBackend(t *testing.T, h http.HandlerFunc) *testBackend {
	t.Helper()
	b := &testBackend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, recordedRequest{Path: r.URL.EscapedPath(), RawQuery: r.URL.RawQuery})
		b.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *testBackend) Requests() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.requests...)
}

// routes serves fixed bodies per path; unknown paths get a 404
func routes(m map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := m[r.URL.Path]
		if !ok {
			writeJSON(w, http.StatusNotFound, `{"detail":"not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestServer(t *testing.T, baseURL string, opts Options) *Server {
	t.Helper()
	api, err := client.New(baseURL)
	require.NoError(t, err)

	opts.Logger = zerolog.Nop()
	s, err := NewServer(api, opts)
	require.NoError(t, err)
	return s
}

// rpc sends one JSON-RPC message through the MCP server and returns the
// response decoded into out
func rpc(t *testing.T, s *Server, msg string, out any) {
	t.Helper()
	resp := s.mcp.HandleMessage(context.Background(), json.RawMessage(msg))
	require.NotNil(t, resp)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func initialize(t *testing.T, s *Server) {
	t.Helper()
	var resp struct {
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	rpc(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0.0.1"}}}`, &resp)
	assert.Equal(t, ServerName, resp.Result.ServerInfo.Name)
	assert.Equal(t, ServerVersion, resp.Result.ServerInfo.Version)
}

type listedTool struct {
	Name        string `json:"name"`
	InputSchema struct {
		Required []string `json:"required"`
	} `json:"inputSchema"`
}

func listTools(t *testing.T, s *Server) map[string]listedTool {
	t.Helper()
	var resp struct {
		Result struct {
			Tools []listedTool `json:"tools"`
		} `json:"result"`
	}
	rpc(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`, &resp)

	tools := make(map[string]listedTool, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		tools[tool.Name] = tool
	}
	return tools
}

func TestNewServer_RequiresBackend(t *testing.T) {
	_, err := NewServer(nil, Options{Logger: zerolog.Nop()})
	assert.Error(t, err)
}

func TestServer_ListTools(t *testing.T) {
	backend := newTestBackend(t, routes(nil))

	t.Run("without journal", func(t *testing.T) {
		s := newTestServer(t, backend.URL, Options{})
		initialize(t, s)

		tools := listTools(t, s)
		assert.Len(t, tools, len(allBackendTools()))
		assert.NotContains(t, tools, "get_call_history")

		for _, bt := range allBackendTools() {
			listed, ok := tools[bt.name]
			require.True(t, ok, "tool %s not listed", bt.name)

			var want []string
			for _, p := range bt.pathParams {
				want = append(want, p.name)
			}
			got := append([]string(nil), listed.InputSchema.Required...)
			sort.Strings(want)
			sort.Strings(got)
			assert.Equal(t, want, got, "required params of %s", bt.name)
		}
	})

	t.Run("with journal", func(t *testing.T) {
		j, err := journal.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = j.Close() })

		s := newTestServer(t, backend.URL, Options{Journal: j})
		initialize(t, s)

		tools := listTools(t, s)
		assert.Len(t, tools, len(allBackendTools())+1)
		assert.Contains(t, tools, "get_call_history")
	})
}

func TestServer_CallToolOverProtocol(t *testing.T) {
	backend := newTestBackend(t, routes(map[string]string{
		"/api/pipelines": `[{"id":"p1","status":"active"}]`,
	}))

	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	s := newTestServer(t, backend.URL, Options{Journal: j})
	initialize(t, s)

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	rpc(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"list_pipelines","arguments":{"status":"active"}}}`, &resp)

	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "text", resp.Result.Content[0].Type)
	assert.Equal(t, "[\n  {\n    \"id\": \"p1\",\n    \"status\": \"active\"\n  }\n]", resp.Result.Content[0].Text)
	assert.False(t, resp.Result.IsError)

	// Middleware journaled the call
	recent, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "list_pipelines", recent[0].Name)
	assert.JSONEq(t, `{"status":"active"}`, string(recent[0].Arguments))
}

func TestServer_ReadResourceOverProtocol(t *testing.T) {
	backend := newTestBackend(t, routes(map[string]string{
		"/api/lineage": `{"nodes":[],"edges":[]}`,
	}))
	s := newTestServer(t, backend.URL, Options{})
	initialize(t, s)

	var resp struct {
		Result struct {
			Contents []struct {
				URI      string `json:"uri"`
				MIMEType string `json:"mimeType"`
				Text     string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
	}
	rpc(t, s, `{"jsonrpc":"2.0","id":4,"method":"resources/read","params":{"uri":"dataops://lineage"}}`, &resp)

	require.Len(t, resp.Result.Contents, 1)
	assert.Equal(t, "dataops://lineage", resp.Result.Contents[0].URI)
	assert.Equal(t, "application/json", resp.Result.Contents[0].MIMEType)
	assert.Equal(t, "{\n  \"nodes\": [],\n  \"edges\": []\n}", resp.Result.Contents[0].Text)
}

func TestServer_ResourceErrorOverProtocol(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"detail":"boom"}`)
	})
	s := newTestServer(t, backend.URL, Options{})
	initialize(t, s)

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	rpc(t, s, `{"jsonrpc":"2.0","id":5,"method":"resources/read","params":{"uri":"dataops://teams"}}`, &resp)

	require.NotNil(t, resp.Error)
	assert.True(t, strings.Contains(resp.Error.Message, "failed to read teams resource"), resp.Error.Message)
}

// callTool invokes a backend tool's handler directly
func callTool(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, bt := range allBackendTools() {
		if bt.name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		result, err := s.handler(bt)(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, result)
		return result
	}
	t.Fatalf("unknown tool %s", name)
	return nil
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return tc.Text
}
