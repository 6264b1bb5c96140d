package main

import (
	"bytes"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataops-studio/dataops-mcp/internal/journal"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Version: dev")
	assert.Contains(t, out.String(), "Build Mode: "+journal.BuildMode)
	assert.Contains(t, out.String(), "SQLite Driver: "+journal.DriverName)
}

func TestServeFlags(t *testing.T) {
	root := newRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())

	for _, cmd := range []string{"config", "api-base", "log-level", "metrics-addr", "journal"} {
		assert.NotNil(t, root.Flags().Lookup(cmd), "root flag %s", cmd)
		assert.NotNil(t, serve.Flags().Lookup(cmd), "serve flag %s", cmd)
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	t.Setenv("DATAOPS_API_BASE", "")
	root := newRootCmd()
	root.SetArgs([]string{"serve", "--api-base", "not a url", "--log-level", "error"})
	root.SetErr(&bytes.Buffer{})

	assert.Error(t, root.Execute())
}

func TestServe_MetricsAddrInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	root := newRootCmd()
	root.SetArgs([]string{"serve",
		"--api-base", "http://127.0.0.1:8000",
		"--log-level", "error",
		"--metrics-addr", busy.Addr().String(),
	})
	root.SetErr(&bytes.Buffer{})

	err = root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics listener")
}

func TestJournalRollback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	rollback := func() (string, error) {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"journal", "rollback", "--journal", path})
		err := root.Execute()
		return out.String(), err
	}

	out, err := rollback()
	require.NoError(t, err)
	assert.Contains(t, out, "rolled back to schema 1.0.0")

	out, err = rollback()
	require.NoError(t, err)
	assert.Contains(t, out, "rolled back to schema 0.0.0")

	_, err = rollback()
	assert.Error(t, err)
}

func TestJournalRollback_NoJournal(t *testing.T) {
	t.Setenv("DATAOPS_JOURNAL_PATH", "")
	root := newRootCmd()
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"journal", "rollback"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no journal configured")
}
