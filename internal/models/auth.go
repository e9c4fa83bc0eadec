package models

import "github.com/golang-jwt/jwt/v5"

// Token types issued by the provisioning CLI
const (
	TokenTypeAdmin     = "admin"
	TokenTypeCollector = "collector"
)

// TokenClaims identifies the caller of the admin or event endpoints.
// Admin tokens guard the listing and settings surface; collector tokens are
// held by the authentication host that reports login outcomes.
type TokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}
