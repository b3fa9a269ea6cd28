package auth

import "time"

// ScopeOperator grants every admin endpoint.
const ScopeOperator = "operator"

// Config drives operator token behavior.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Token is a freshly minted bearer token.
type Token struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims are extracted from a validated JWT.
type Claims struct {
	ID        string
	Subject   string
	Scope     string
	ExpiresAt time.Time
}
