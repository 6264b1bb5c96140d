// Package journal persists a record of every MCP tool call and resource read
// in a local SQLite database.
//
// The journal is opt-in (journal_path / DATAOPS_JOURNAL_PATH). When enabled,
// the server middleware appends one row per invocation after the handler
// returns, and the get_call_history tool reads the most recent rows back.
//
// # Schema
//
//	calls (
//	    id            INTEGER PRIMARY KEY AUTOINCREMENT,
//	    call_id       TEXT NOT NULL UNIQUE,   -- uuid, also present in log lines
//	    kind          TEXT NOT NULL,          -- "tool" or "resource"
//	    name          TEXT NOT NULL,          -- tool name or resource URI
//	    arguments     TEXT NOT NULL,          -- JSON object
//	    is_error      INTEGER NOT NULL,
//	    error_message TEXT,
//	    duration_ms   INTEGER NOT NULL,
//	    created_at    INTEGER NOT NULL        -- unix milliseconds
//	)
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with the
// sqlite_cgo tag switches to github.com/mattn/go-sqlite3.
//
// # Basic Usage
//
//	j, err := journal.Open("/var/lib/dataops/journal.db")
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	err = j.Record(ctx, &journal.Record{
//	    CallID:   uuid.NewString(),
//	    Kind:     journal.KindTool,
//	    Name:     "list_pipelines",
//	    Duration: 42 * time.Millisecond,
//	})
//
//	recent, err := j.Recent(ctx, 20)
package journal
