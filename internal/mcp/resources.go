package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/dataops-studio/dataops-mcp/internal/client"
)

const (
	mimeJSON = "application/json"

	// PipelineTemplateURI addresses a single pipeline snapshot
	PipelineTemplateURI = "dataops://pipelines/{id}"
	pipelineURIPrefix   = "dataops://pipelines/"
)

// resourceHandler is left unnamed so it satisfies both the static and the
// template handler types of mcp-go
type resourceHandler = func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

// resourceFetch returns the JSON behind the requested URI
type resourceFetch func(ctx context.Context, uri string) (json.RawMessage, error)

type snapshotResource struct {
	name        string
	uri         string
	description string
	fetch       resourceFetch
}

func (s *Server) snapshotResources() []snapshotResource {
	return []snapshotResource{
		{
			name:        "pipelines",
			uri:         "dataops://pipelines",
			description: "Directory of all data pipelines with status, owner, and performance metrics",
			fetch:       s.fetchPath("/api/pipelines"),
		},
		{
			name:        "quality-rules",
			uri:         "dataops://quality/rules",
			description: "All quality rule definitions with 30-day pass rates",
			fetch:       s.fetchPath("/api/quality/rules"),
		},
		{
			name:        "lineage",
			uri:         "dataops://lineage",
			description: "Complete data lineage graph with nodes and edges",
			fetch:       s.fetchPath("/api/lineage"),
		},
		{
			name:        "dashboard",
			uri:         "dataops://dashboard",
			description: "Dashboard snapshot with key metrics and recent alerts",
			fetch:       s.fetchDashboard,
		},
		{
			name:        "teams",
			uri:         "dataops://teams",
			description: "Team directory with pipeline assignments and performance metrics",
			fetch:       s.fetchPath("/api/teams/stats"),
		},
	}
}

// registerResources registers the snapshot resources and the pipeline template
func (s *Server) registerResources() {
	for _, r := range s.snapshotResources() {
		s.mcp.AddResource(
			mcp.NewResource(r.uri, r.name,
				mcp.WithResourceDescription(r.description),
				mcp.WithMIMEType(mimeJSON),
			),
			s.observeResource(r.name, jsonResource(r.name, r.fetch)),
		)
	}

	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(PipelineTemplateURI, "pipeline",
			mcp.WithTemplateDescription("A single data pipeline with its recent executions"),
			mcp.WithTemplateMIMEType(mimeJSON),
		),
		s.observeResource("pipeline", jsonResource("pipeline", s.fetchPipeline)),
	)
}

// jsonResource returns the fetched JSON as a single text content tagged with
// the requested URI. Failures are returned as errors naming the resource.
func jsonResource(name string, fetch resourceFetch) resourceHandler {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI

		body, err := fetch(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s resource: %w", name, err)
		}
		text, err := formatJSON(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s resource: %w", name, err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: mimeJSON,
				Text:     text,
			},
		}, nil
	}
}

func (s *Server) fetchPath(path string) resourceFetch {
	return func(ctx context.Context, _ string) (json.RawMessage, error) {
		return s.api.Get(ctx, path, nil)
	}
}

// fetchPipeline reads the pipeline named by the last URI segment
func (s *Server) fetchPipeline(ctx context.Context, uri string) (json.RawMessage, error) {
	id, err := pipelineID(uri)
	if err != nil {
		return nil, err
	}
	return s.api.Get(ctx, "/api/pipelines/"+url.PathEscape(id), nil)
}

func pipelineID(uri string) (string, error) {
	id, ok := strings.CutPrefix(uri, pipelineURIPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid pipeline URI %q", uri)
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return id, nil
}

// dashboardSnapshot fixes the output key order to stats, then alerts
type dashboardSnapshot struct {
	Stats  json.RawMessage `json:"stats"`
	Alerts json.RawMessage `json:"alerts"`
}

// fetchDashboard fetches stats and alerts concurrently. Either failure fails
// the whole read.
func (s *Server) fetchDashboard(ctx context.Context, _ string) (json.RawMessage, error) {
	var snap dashboardSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := client.GetJSON[json.RawMessage](gctx, s.api, "/api/dashboard/stats", nil)
		snap.Stats = stats
		return err
	})
	g.Go(func() error {
		alerts, err := client.GetJSON[json.RawMessage](gctx, s.api, "/api/dashboard/alerts", nil)
		snap.Alerts = alerts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode dashboard: %w", err)
	}
	return buf.Bytes(), nil
}
