package sqlgate

import (
	"context"
	"fmt"
	"strconv"
)

// VitessError is a statement-level failure reported by the gateway, distinct
// from a transport failure.
type VitessError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type executeRequest struct {
	Query   string   `json:"query"`
	Session *Session `json:"session"`
}

type executeResponse struct {
	Session *Session     `json:"session"`
	Result  *QueryResult `json:"result"`
	Error   *VitessError `json:"error"`
}

// Exec runs a single SQL statement with no caching.
func (c *Client) Exec(ctx context.Context, sql string) (*QueryResult, error) {
	return c.Execute(ctx, Query{SQL: sql})
}

// Execute runs a query against the gateway, threading the client's session
// through the request and replacing it with the session the gateway returns.
//
// The returned session is persisted even when the gateway rejects the
// statement: the server may have advanced session state regardless, and the
// held session must reflect that truthfully. Transport and decode failures
// leave the session unchanged.
func (c *Client) Execute(ctx context.Context, query Query) (*QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	headers := map[string]string{}
	if key := query.cacheKey(c.username); key != "" {
		headers["Cache-Control"] = fmt.Sprintf("max-age=%d", int(query.Cache.TTL.Seconds()))
		headers["X-Cache-Key"] = key
	}

	var envelope executeResponse
	request := executeRequest{Query: query.SQL, Session: c.session}
	if err := c.post(ctx, "/Execute", request, headers, &envelope); err != nil {
		return nil, err
	}

	// Full replacement, never a merge: the token itself is stateful.
	c.session = envelope.Session

	if envelope.Error != nil {
		return nil, NewStatementError(envelope.Error.Message, envelope.Error.Code)
	}
	if envelope.Result == nil {
		return nil, NewProtocolError("gateway response carries neither result nor error")
	}
	return envelope.Result, nil
}

// Refresh establishes a brand-new session via CreateSession, discarding any
// session the client held, and returns the gateway's session bundle.
func (c *Client) Refresh(ctx context.Context) (*SessionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var info SessionInfo
	if err := c.post(ctx, "/CreateSession", struct{}{}, nil, &info); err != nil {
		return nil, err
	}
	if info.Session == nil {
		return nil, NewProtocolError("CreateSession response carries no session")
	}
	c.session = info.Session
	return &info, nil
}

// Boost toggles cached query execution for the session.
func (c *Client) Boost(ctx context.Context, enabled bool) error {
	_, err := c.Exec(ctx, "SET @@boost_cached_queries = "+strconv.FormatBool(enabled))
	return err
}
