// Package mcp implements the Model Context Protocol (MCP) server for DataOps Studio.
//
// The server exposes the DataOps Studio REST API to AI agents. Every tool is
// a passthrough to one backend GET endpoint; every resource is a read-only
// JSON snapshot under the dataops:// URI scheme.
//
// # Tools
//
// Tools are grouped by backend family:
//   - pipelines: list_pipelines, get_pipeline_detail, list_pipeline_executions
//   - quality: get_quality_rules, get_quality_checks, get_quality_score_trend
//   - cost: get_cost_summary, get_cost_trend
//   - lineage: get_data_lineage
//   - dashboard: get_dashboard_stats, get_dashboard_alerts, get_execution_trend
//   - teams: get_team_stats
//   - annotation: list_annotation_tasks, get_annotation_quality, get_annotation_task,
//     list_annotation_samples, list_annotation_submissions, list_annotators,
//     get_annotation_stats
//   - agent annotation: get_agent_annotation_stats, list_agent_sessions,
//     get_agent_session, get_agent_session_tool_calls, list_agent_annotations
//   - config: reload_config
//
// When a call journal is configured, get_call_history is registered as well.
//
// A successful call returns one text block holding the backend body written
// back out the way JSON.stringify(body, null, 2) would, so 100.0 reads 100
// and \u00e9 reads é:
//
//	Request:
//	{
//	  "name": "list_pipelines",
//	  "arguments": {"status": "active"}
//	}
//
//	Response:
//	{
//	  "content": [{"type": "text", "text": "[\n  {\n    \"id\": \"p1\", ..."}]
//	}
//
// Tool failures never surface as protocol errors. They come back as a
// single text block starting with "Error: " and isError set:
//
//	{
//	  "content": [{"type": "text", "text": "Error: HTTP 404 Not Found from ..."}],
//	  "isError": true
//	}
//
// # Resources
//
//	dataops://pipelines       /api/pipelines
//	dataops://quality/rules   /api/quality/rules
//	dataops://lineage         /api/lineage
//	dataops://dashboard       /api/dashboard/stats + /api/dashboard/alerts
//	dataops://teams           /api/teams/stats
//	dataops://pipelines/{id}  /api/pipelines/{id}
//
// The dashboard resource fetches both endpoints concurrently and returns
// {"stats": ..., "alerts": ...}; if either fetch fails the read fails.
// Resource failures are returned as read errors of the form
// "failed to read <name> resource: <cause>".
//
// # Logging
//
// Stdout carries the protocol; all logging goes to stderr through the
// zerolog logger passed in Options.
package mcp
