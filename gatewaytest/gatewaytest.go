// Package gatewaytest provides an in-process fake SQL gateway for tests.
//
// The server speaks the real wire protocol (POST /Execute and
// /CreateSession, Basic auth, signed sessions, length-prefixed base64 row
// encoding) and executes statements against an actual SQLite database, so
// tests exercise the full encode/decode path instead of canned fixtures.
package gatewaytest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tomyedwab/sqlgate"
)

// Request records one Execute call for later verification.
type Request struct {
	SQL          string
	HasSession   bool
	CacheKey     string
	CacheControl string
}

// Server is a fake gateway bound to one set of credentials.
type Server struct {
	// URL is the base URL tests should point their clients at.
	URL string

	username   string
	password   string
	db         *sqlx.DB
	signingKey []byte
	httpServer *httptest.Server

	mu       sync.Mutex
	requests []Request
}

// Start runs a fake gateway for the lifetime of the test.
func Start(t testing.TB, username, password string) *Server {
	t.Helper()

	dbPath := path.Join(t.TempDir(), "gateway.db")
	db := sqlx.MustConnect("sqlite3", dbPath)
	t.Cleanup(func() { db.Close() })

	s := &Server{
		username:   username,
		password:   password,
		db:         db,
		signingKey: []byte(uuid.NewString()),
	}

	router := mux.NewRouter()
	router.HandleFunc("/Execute", s.withAuth(s.handleExecute)).Methods("POST")
	router.HandleFunc("/CreateSession", s.withAuth(s.handleCreateSession)).Methods("POST")

	s.httpServer = httptest.NewServer(router)
	t.Cleanup(s.httpServer.Close)
	s.URL = s.httpServer.URL
	return s
}

// Client returns a sqlgate client pointed at this server with its
// credentials.
func (s *Server) Client() *sqlgate.Client {
	return sqlgate.NewClient(s.username, s.password, sqlgate.WithBaseURL(s.URL))
}

// DB exposes the backing database so tests can seed fixture data directly.
func (s *Server) DB() *sqlx.DB {
	return s.db
}

// Requests returns every Execute call received so far, in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Statements returns the SQL text of every Execute call received so far.
func (s *Server) Statements() []string {
	requests := s.Requests()
	out := make([]string, len(requests))
	for i, r := range requests {
		out[i] = r.SQL
	}
	return out
}

// ResetRequests clears the recorded request history.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != s.username || password != s.password {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// --- Wire envelopes ---

type executeRequest struct {
	Query   string           `json:"query"`
	Session *sqlgate.Session `json:"session"`
}

type executeResponse struct {
	Session *sqlgate.Session     `json:"session"`
	Result  *sqlgate.QueryResult `json:"result,omitempty"`
	Error   *sqlgate.VitessError `json:"error,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		SQL:          req.Query,
		HasSession:   req.Session != nil,
		CacheKey:     r.Header.Get("X-Cache-Key"),
		CacheControl: r.Header.Get("Cache-Control"),
	})
	s.mu.Unlock()

	sessionID := uuid.NewString()
	if req.Session != nil {
		id, err := s.verifySession(req.Session)
		if err != nil {
			http.Error(w, "invalid session signature", http.StatusForbidden)
			return
		}
		sessionID = id
	}

	resp := executeResponse{}
	result, execErr := s.runStatement(req.Query)
	if execErr != nil {
		log.Printf("gatewaytest: statement failed: %v", execErr)
		resp.Error = &sqlgate.VitessError{Message: execErr.Error(), Code: "UNKNOWN"}
	} else {
		resp.Result = result
	}

	rowCount := ""
	if result != nil {
		rowCount = strconv.Itoa(len(result.Rows))
	}
	resp.Session = s.newSession(sessionID, rowCount)
	writeJSON(w, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	info := sqlgate.SessionInfo{
		Branch:  "main",
		User:    &sqlgate.User{ID: uuid.NewString(), Username: s.username},
		Session: s.newSession(uuid.NewString(), ""),
	}
	writeJSON(w, info)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// --- Sessions ---

// newSession mints a replacement session. The signature is a real signed
// token over the session identity, so tampered or foreign sessions are
// rejected the way a production gateway would reject them.
func (s *Server) newSession(sessionID, rowCount string) *sqlgate.Session {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  s.username,
		"uuid": sessionID,
		"jti":  uuid.NewString(), // a stateful token: every response re-signs
	})
	signature, err := token.SignedString(s.signingKey)
	if err != nil {
		// HS256 signing of a map claim set cannot fail at runtime.
		panic(err)
	}
	return &sqlgate.Session{
		Signature: signature,
		VitessSession: sqlgate.VitessSession{
			Autocommit:           true,
			RowCount:             rowCount,
			SessionUUID:          sessionID,
			EnableSystemSettings: true,
		},
	}
}

func (s *Server) verifySession(session *sqlgate.Session) (string, error) {
	token, err := jwt.Parse(session.Signature, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	sessionID, _ := claims["uuid"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session token carries no uuid")
	}
	return sessionID, nil
}

// --- Statement execution ---

// runStatement executes one statement against the backing database and packs
// the outcome into the gateway result shape. Transaction control and SET
// statements are acknowledged without touching the database; the recorded
// statement log is what transaction tests assert against.
func (s *Server) runStatement(sql string) (*sqlgate.QueryResult, error) {
	head := strings.ToUpper(firstWord(sql))
	switch head {
	case "BEGIN", "COMMIT", "ROLLBACK", "SET":
		return &sqlgate.QueryResult{}, nil
	case "SELECT", "SHOW", "DESCRIBE", "EXPLAIN", "WITH":
		return s.runQuery(sql)
	default:
		return s.runExec(sql)
	}
}

func firstWord(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (s *Server) runExec(sql string) (*sqlgate.QueryResult, error) {
	res, err := s.db.Exec(sql)
	if err != nil {
		return nil, err
	}
	result := &sqlgate.QueryResult{}
	if affected, err := res.RowsAffected(); err == nil {
		result.RowsAffected = strconv.FormatInt(affected, 10)
	}
	if insertID, err := res.LastInsertId(); err == nil && insertID > 0 {
		result.InsertID = strconv.FormatInt(insertID, 10)
	}
	return result, nil
}

func (s *Server) runQuery(sql string) (*sqlgate.QueryResult, error) {
	rows, err := s.db.Queryx(sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &sqlgate.QueryResult{}
	fieldTypes := make([]string, len(columns))
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		encoded := make([]*string, len(values))
		for i, value := range values {
			text, typeTag := renderValue(value)
			encoded[i] = text
			if fieldTypes[i] == "" {
				fieldTypes[i] = typeTag
			}
		}
		result.Rows = append(result.Rows, encodeRow(encoded))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Fields = make([]sqlgate.Field, len(columns))
	for i, name := range columns {
		typeTag := fieldTypes[i]
		if typeTag == "" {
			typeTag = "VARCHAR"
		}
		result.Fields[i] = sqlgate.Field{Name: name, Type: typeTag}
	}
	result.RowsAffected = strconv.Itoa(len(result.Rows))
	return result, nil
}

// renderValue flattens one scanned SQLite value into its wire text and the
// Vitess type tag the gateway would declare for it. Integers are tagged
// INT64 (SQLite integers are 64-bit), so clients keep them as strings.
func renderValue(value any) (*string, string) {
	switch v := value.(type) {
	case nil:
		return nil, ""
	case int64:
		text := strconv.FormatInt(v, 10)
		return &text, "INT64"
	case float64:
		text := strconv.FormatFloat(v, 'g', -1, 64)
		return &text, "FLOAT64"
	case bool:
		text := "0"
		if v {
			text = "1"
		}
		return &text, "INT8"
	case time.Time:
		text := v.Format("2006-01-02 15:04:05")
		return &text, "DATETIME"
	case []byte:
		text := string(v)
		return &text, "VARCHAR"
	case string:
		return &v, "VARCHAR"
	default:
		text := fmt.Sprint(v)
		return &text, "VARCHAR"
	}
}

// encodeRow packs per-column values into the wire row encoding: decimal
// lengths (-1 for NULL) plus one base64 blob of the concatenated values.
func encodeRow(values []*string) sqlgate.Row {
	row := sqlgate.Row{Lengths: make([]string, len(values))}
	var blob strings.Builder
	for i, value := range values {
		if value == nil {
			row.Lengths[i] = "-1"
			continue
		}
		row.Lengths[i] = strconv.Itoa(len(*value))
		blob.WriteString(*value)
	}
	if blob.Len() > 0 {
		row.Values = base64.StdEncoding.EncodeToString([]byte(blob.String()))
	}
	return row
}
