package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// param describes one string tool argument
type param struct {
	name        string
	description string
}

// backendTool maps an MCP tool onto one backend GET endpoint.
// Path params fill {name} placeholders in path and are required; query
// params are optional and forwarded only when present.
type backendTool struct {
	name        string
	description string
	path        string
	pathParams  []param
	queryParams []param
	mutating    bool
}

var (
	pipelineIDParam = param{"id", "Pipeline ID"}
	sessionIDParam  = param{"session_id", "Agent session ID"}
	taskIDParam     = param{"task_id", "Annotation task ID"}
)

func pipelineTools() []backendTool {
	return []backendTool{
		{
			name:        "list_pipelines",
			description: "List all data pipelines. Optionally filter by status or owner.",
			path:        "/api/pipelines",
			queryParams: []param{
				{"status", "Filter by pipeline status, e.g. 'active', 'paused', 'degraded'"},
				{"owner", "Filter by pipeline owner name"},
			},
		},
		{
			name:        "get_pipeline_detail",
			description: "Get detailed information about a specific pipeline including recent executions.",
			path:        "/api/pipelines/{id}",
			pathParams:  []param{pipelineIDParam},
		},
		{
			name:        "list_pipeline_executions",
			description: "Get execution history for a specific pipeline.",
			path:        "/api/pipelines/{id}/executions",
			pathParams:  []param{pipelineIDParam},
			queryParams: []param{
				{"limit", "Maximum number of executions to return, default 50"},
			},
		},
	}
}

func qualityTools() []backendTool {
	return []backendTool{
		{
			name:        "get_quality_rules",
			description: "Get all quality rules with their 30-day pass rates.",
			path:        "/api/quality/rules",
		},
		{
			name:        "get_quality_checks",
			description: "Get quality check results. Returns recent check executions.",
			path:        "/api/quality/checks",
			queryParams: []param{
				{"limit", "Maximum number of checks to return, default 100"},
			},
		},
		{
			name:        "get_quality_score_trend",
			description: "Get the daily data quality score trend for the last 14 days.",
			path:        "/api/quality/score-trend",
		},
	}
}

func costTools() []backendTool {
	return []backendTool{
		{
			name:        "get_cost_summary",
			description: "Get cost overview with total 30-day cost and per-pipeline breakdown.",
			path:        "/api/cost/summary",
		},
		{
			name:        "get_cost_trend",
			description: "Get 30-day daily cost trend data.",
			path:        "/api/cost/trend",
		},
	}
}

func lineageTools() []backendTool {
	return []backendTool{
		{
			name:        "get_data_lineage",
			description: "Get the data lineage graph showing nodes (tables/datasets) and edges (data flows between them).",
			path:        "/api/lineage",
		},
	}
}

func dashboardTools() []backendTool {
	return []backendTool{
		{
			name:        "get_dashboard_stats",
			description: "Get key dashboard metrics including active pipelines, quality score, cost, and alert counts.",
			path:        "/api/dashboard/stats",
		},
		{
			name:        "get_dashboard_alerts",
			description: "Get recent alerts from the dashboard.",
			path:        "/api/dashboard/alerts",
			queryParams: []param{
				{"limit", "Maximum number of alerts to return, default 20"},
			},
		},
		{
			name:        "get_execution_trend",
			description: "Get the daily pipeline execution trend (success and failure counts).",
			path:        "/api/dashboard/execution-trend",
		},
	}
}

func teamTools() []backendTool {
	return []backendTool{
		{
			name:        "get_team_stats",
			description: "Get performance statistics for all teams including pipeline counts, costs, success rates, and quality scores.",
			path:        "/api/teams/stats",
		},
	}
}

func annotationTools() []backendTool {
	return []backendTool{
		{
			name:        "list_annotation_tasks",
			description: "List all RLHF annotation tasks with their progress and quality metrics.",
			path:        "/api/annotation/tasks",
		},
		{
			name:        "get_annotation_quality",
			description: "Get annotation quality metrics including approval rates, inter-annotator agreement (Fleiss Kappa), and per-task-type breakdown.",
			path:        "/api/annotation/quality",
		},
		{
			name:        "get_annotation_task",
			description: "Get a single RLHF annotation task with its recent submissions and sample count.",
			path:        "/api/annotation/tasks/{task_id}",
			pathParams:  []param{taskIDParam},
		},
		{
			name:        "list_annotation_samples",
			description: "List the samples of an annotation task (prompt and candidate responses) with their annotation state.",
			path:        "/api/annotation/tasks/{task_id}/samples",
			pathParams:  []param{taskIDParam},
			queryParams: []param{
				{"limit", "Maximum number of samples to return, default 50"},
			},
		},
		{
			name:        "list_annotation_submissions",
			description: "List the submissions of an annotation task, optionally filtered by review status.",
			path:        "/api/annotation/tasks/{task_id}/submissions",
			pathParams:  []param{taskIDParam},
			queryParams: []param{
				{"review_status", "Filter by review status, e.g. 'pending', 'approved', 'rejected'; default all"},
			},
		},
		{
			name:        "list_annotators",
			description: "List annotators with their submission counts and approval rates.",
			path:        "/api/annotation/annotators",
		},
		{
			name:        "get_annotation_stats",
			description: "Get overall annotation statistics across all RLHF tasks.",
			path:        "/api/annotation/stats",
		},
	}
}

func agentAnnotationTools() []backendTool {
	return []backendTool{
		{
			name:        "get_agent_annotation_stats",
			description: "Get agent annotation statistics including total sessions, tool calls, annotations, and annotation rate.",
			path:        "/api/agent-annotation/stats",
		},
		{
			name:        "list_agent_sessions",
			description: "List all agent sessions with their metadata.",
			path:        "/api/agent-annotation/sessions",
		},
		{
			name:        "get_agent_session",
			description: "Get a single agent session with its metadata.",
			path:        "/api/agent-annotation/sessions/{session_id}",
			pathParams:  []param{sessionIDParam},
		},
		{
			name:        "get_agent_session_tool_calls",
			description: "Get tool calls with their annotations for a specific agent session.",
			path:        "/api/agent-annotation/sessions/{session_id}/tool-calls",
			pathParams:  []param{sessionIDParam},
		},
		{
			name:        "list_agent_annotations",
			description: "List agent tool-call annotations, optionally for a single session.",
			path:        "/api/agent-annotation/annotations",
			queryParams: []param{
				{"session_id", "Only return annotations of this agent session"},
			},
		},
	}
}

func configTools() []backendTool {
	return []backendTool{
		{
			name:        "reload_config",
			description: "Trigger a hot reload of all YAML configuration files (pipelines, quality rules, annotation tasks). Returns the count of loaded items.",
			path:        "/api/config/reload",
			mutating:    true,
		},
	}
}

// allBackendTools returns every backend passthrough tool, grouped by family
func allBackendTools() []backendTool {
	var tools []backendTool
	for _, family := range [][]backendTool{
		pipelineTools(),
		qualityTools(),
		costTools(),
		lineageTools(),
		dashboardTools(),
		teamTools(),
		annotationTools(),
		agentAnnotationTools(),
		configTools(),
	} {
		tools = append(tools, family...)
	}
	return tools
}

// definition builds the MCP tool schema
func (t backendTool) definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.description),
		mcp.WithReadOnlyHintAnnotation(!t.mutating),
		mcp.WithOpenWorldHintAnnotation(true),
	}
	for _, p := range t.pathParams {
		opts = append(opts, mcp.WithString(p.name, mcp.Required(), mcp.Description(p.description)))
	}
	for _, p := range t.queryParams {
		opts = append(opts, mcp.WithString(p.name, mcp.Description(p.description)))
	}
	return mcp.NewTool(t.name, opts...)
}

// callHistoryTool returns the tool definition for get_call_history
func callHistoryTool() mcp.Tool {
	return mcp.NewTool("get_call_history",
		mcp.WithDescription("List the most recent tool calls and resource reads served by this MCP server, newest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("limit", mcp.Description("Maximum number of records to return (1-500), default 20")),
	)
}
