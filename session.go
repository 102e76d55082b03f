package sqlgate

// Session is the opaque, server-issued state the gateway threads through
// sequential requests. It is replaced wholesale by every response; the client
// never merges or edits one.
type Session struct {
	Signature     string        `json:"signature"`
	VitessSession VitessSession `json:"vitessSession"`
}

// VitessSession carries the per-session flags the gateway reports back after
// each statement.
type VitessSession struct {
	Autocommit           bool   `json:"autocommit,omitempty"`
	FoundRows            string `json:"foundRows,omitempty"`
	RowCount             string `json:"rowCount,omitempty"`
	DDLStrategy          string `json:"DDLStrategy,omitempty"`
	SessionUUID          string `json:"SessionUUID,omitempty"`
	EnableSystemSettings bool   `json:"enableSystemSettings,omitempty"`
}

// User identifies the principal a session was created for.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
}

// SessionInfo is the bundle returned by the gateway's CreateSession operation.
type SessionInfo struct {
	Branch  string   `json:"branch,omitempty"`
	User    *User    `json:"user,omitempty"`
	Session *Session `json:"session"`
}
