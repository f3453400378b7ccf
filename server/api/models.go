package api

// LoginRequest is the body of a request to create a new login session.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login or token refresh.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// UserModel is the JSON representation of a user account.
type UserModel struct {
	URI            string `json:"uri,omitempty"`
	ID             string `json:"id"`
	Username       string `json:"username"`
	Password       string `json:"password,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	LastLogoutTime string `json:"last_logout_time,omitempty"`
	LastLoginTime  string `json:"last_login_time,omitempty"`
}

// FieldUpdate wraps a value in a partial-update request, distinguishing
// "not present in request" from "present and set to the zero value".
type FieldUpdate[T any] struct {
	Update bool `json:"u"`
	Value  T    `json:"v"`
}

// UserUpdateRequest is the body of a partial update to a user entity. Only
// fields with Update set to true are applied.
type UserUpdateRequest struct {
	ID       FieldUpdate[string] `json:"id"`
	Username FieldUpdate[string] `json:"username"`
	Password FieldUpdate[string] `json:"password"`
	Email    FieldUpdate[string] `json:"email"`
	Role     FieldUpdate[string] `json:"role"`
}

// InfoModel describes the running server for unauthenticated discovery.
type InfoModel struct {
	Version struct {
		Server string `json:"server"`
	} `json:"version"`
}

// GrammarModel is the JSON representation of a stored grammar.
type GrammarModel struct {
	URI      string `json:"uri,omitempty"`
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Source   string `json:"source"`
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// GrammarCreateRequest is the body of a request to create or replace a
// grammar's source text.
type GrammarCreateRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// ParseRequest is the body of a request to parse input against a stored
// grammar. StartSymbol may be left blank to use the grammar's declared start
// symbols.
type ParseRequest struct {
	Input       string `json:"input"`
	StartSymbol string `json:"start_symbol,omitempty"`
}

// ParseRunModel is the JSON representation of a recorded parse attempt.
type ParseRunModel struct {
	URI       string   `json:"uri,omitempty"`
	ID        string   `json:"id"`
	GrammarID string   `json:"grammar_id"`
	OwnerID   string   `json:"owner_id"`
	Input     string   `json:"input"`
	Trees     []string `json:"trees"`
	Ambiguous bool     `json:"ambiguous"`
	Created   string   `json:"created,omitempty"`
}
