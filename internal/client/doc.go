// Package client is the HTTP client for the DataOps Studio backend REST API.
//
// Every MCP tool and resource reaches the backend through Client.Get, which
// issues a single GET against the configured base URL and returns the raw
// JSON body. There are no retries and no caching: each call is one
// best-effort attempt and failures surface immediately.
//
// # Basic Usage
//
//	c, err := client.New("http://localhost:8000", client.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	body, err := c.Get(ctx, "/api/pipelines", map[string]string{"status": "active"})
//
//	// Or decode into a typed value
//	stats, err := client.GetJSON[map[string]any](ctx, c, "/api/dashboard/stats", nil)
//
// # URL Resolution
//
// The path is resolved against the base URL the way a browser resolves a
// relative reference, so an absolute path such as /api/lineage replaces any
// path component of the base. Query parameters are URL-encoded; an empty or
// nil map produces no query string.
//
// # Errors
//
// Three failure modes are reported as distinct types:
//
//	var netErr *client.NetworkError   // DNS, connection refused, transport timeout
//	var httpErr *client.HTTPError     // non-2xx status, with the response body
//	var parseErr *client.ParseError   // 2xx body that is not valid JSON
//
//	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
//	    ...
//	}
//
// # Logging
//
// Each request logs its target URL before it is sent and logs again on
// failure. The logger must write to stderr when the process serves MCP over
// stdio.
package client
