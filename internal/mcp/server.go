package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/dataops-studio/dataops-mcp/internal/journal"
)

const (
	// ServerName is the MCP server name
	ServerName = "dataops-studio"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Backend fetches JSON from the DataOps Studio REST API
type Backend interface {
	Get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error)
}

// CallObserver receives one observation per tool call and resource read
type CallObserver interface {
	ObserveToolCall(tool string, isError bool, d time.Duration)
	ObserveResourceRead(resource string, failed bool)
}

// Options holds the optional collaborators of a Server
type Options struct {
	Logger  zerolog.Logger
	Metrics CallObserver
	Journal journal.Journal
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	api     Backend
	logger  zerolog.Logger
	metrics CallObserver
	journal journal.Journal
}

// NewServer creates a new MCP server instance backed by api
func NewServer(api Backend, opts Options) (*Server, error) {
	if api == nil {
		return nil, errors.New("backend is required")
	}

	s := &Server{
		api:     api,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		journal: opts.Journal,
	}

	s.mcp = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithToolHandlerMiddleware(s.toolMiddleware),
		server.WithRecovery(),
	)

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	s.registerResources()

	return s, nil
}

// Serve runs the MCP server on stdio and blocks until ctx is done or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO runs the MCP protocol over in/out
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(s.logger, "", 0))

	s.logger.Info().Str("server", ServerName).Str("version", ServerVersion).Msg("MCP server listening on stdio")

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	seen := make(map[string]bool)
	for _, t := range allBackendTools() {
		if seen[t.name] {
			return fmt.Errorf("duplicate tool %q", t.name)
		}
		seen[t.name] = true
		s.mcp.AddTool(t.definition(), s.handler(t))
	}

	// History is only meaningful when calls are being journaled
	if s.journal != nil {
		s.mcp.AddTool(callHistoryTool(), jsonTool(s.handleCallHistory))
	}

	return nil
}
