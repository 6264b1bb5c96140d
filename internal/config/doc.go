// Package config loads the immutable runtime configuration of the DataOps MCP server.
//
// Values are layered, later sources winning:
//
//  1. Built-in defaults (backend at http://localhost:8000, info logging)
//  2. An optional YAML file (see Load); ${VAR} references are expanded
//  3. DATAOPS_* environment variables
//  4. Command-line flags, applied by the caller through Overrides
//
// Example YAML:
//
//	api_base: http://dataops-backend:8000
//	log:
//	  level: debug
//	  pretty: true
//	metrics_addr: 127.0.0.1:9464
//	journal_path: ${HOME}/.dataops/journal.db
//
// The returned Config is a value; nothing mutates it after startup.
package config
