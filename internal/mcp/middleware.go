package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dataops-studio/dataops-mcp/internal/journal"
)

var tracer = otel.Tracer("github.com/dataops-studio/dataops-mcp/internal/mcp")

// toolMiddleware traces, logs, measures and journals every tool call
func (s *Server) toolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callID := uuid.NewString()
		name := request.Params.Name
		start := time.Now()

		ctx, span := tracer.Start(ctx, "tools/call "+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("mcp.tool", name),
				attribute.String("mcp.call_id", callID),
			))
		defer span.End()

		result, err := next(ctx, request)
		elapsed := time.Since(start)

		isError := err != nil || (result != nil && result.IsError)
		errMsg := ""
		switch {
		case err != nil:
			errMsg = err.Error()
		case isError:
			errMsg = resultText(result)
		}
		if isError {
			span.SetStatus(codes.Error, errMsg)
		}

		event := s.logger.Info()
		if isError {
			event = s.logger.Warn().Str("error", errMsg)
		}
		event.Str("call_id", callID).
			Str("tool", name).
			Dur("duration", elapsed).
			Bool("is_error", isError).
			Msg("tool call")

		if s.metrics != nil {
			s.metrics.ObserveToolCall(name, isError, elapsed)
		}

		s.record(ctx, &journal.Record{
			CallID:       callID,
			Kind:         journal.KindTool,
			Name:         name,
			Arguments:    marshalArguments(request.GetArguments()),
			IsError:      isError,
			ErrorMessage: errMsg,
			Duration:     elapsed,
		})

		return result, err
	}
}

// observeResource wraps a resource handler with the same tracing, logging,
// metrics and journaling as tool calls
func (s *Server) observeResource(name string, next resourceHandler) resourceHandler {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		callID := uuid.NewString()
		start := time.Now()

		ctx, span := tracer.Start(ctx, "resources/read "+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("mcp.resource", name),
				attribute.String("mcp.uri", request.Params.URI),
				attribute.String("mcp.call_id", callID),
			))
		defer span.End()

		contents, err := next(ctx, request)
		elapsed := time.Since(start)

		event := s.logger.Info()
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
			event = s.logger.Warn().Str("error", errMsg)
			span.SetStatus(codes.Error, errMsg)
		}
		event.Str("call_id", callID).
			Str("resource", name).
			Str("uri", request.Params.URI).
			Dur("duration", elapsed).
			Msg("resource read")

		if s.metrics != nil {
			s.metrics.ObserveResourceRead(name, err != nil)
		}

		s.record(ctx, &journal.Record{
			CallID:       callID,
			Kind:         journal.KindResource,
			Name:         request.Params.URI,
			IsError:      err != nil,
			ErrorMessage: errMsg,
			Duration:     elapsed,
		})

		return contents, err
	}
}

// record writes rec to the journal, if any. Failures are only logged.
func (s *Server) record(ctx context.Context, rec *journal.Record) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error().Err(err).Str("call_id", rec.CallID).Msg("failed to journal call")
	}
}

func marshalArguments(args map[string]any) json.RawMessage {
	if len(args) == 0 {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil
	}
	return data
}

// resultText returns the first text block of a tool result
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
