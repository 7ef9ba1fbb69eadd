package solid

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Authenticator decorates outgoing pod requests with credentials. A nil
// Authenticator on the client means anonymous access (useful against the test
// pod).
type Authenticator interface {
	Authorize(req *http.Request) error
}

// SessionConfig carries the Solid-OIDC client-credentials registration for
// the pod owner's agent.
type SessionConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	WebID        string
}

// Session is an authenticated Solid-OIDC session. Access tokens come from the
// client-credentials grant and are bound to a per-session DPoP key; every
// request carries a fresh DPoP proof.
type Session struct {
	webID     string
	key       *ecdsa.PrivateKey
	publicJWK map[string]any
	tokens    oauth2.TokenSource
}

// NewSession generates the session's DPoP key pair and prepares the token
// source. No network call is made until the first request.
func NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.TokenURL == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("solid: session config missing token URL or client id")
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("solid: generate dpop key: %w", err)
	}
	pub, err := jwk.FromRaw(key.Public())
	if err != nil {
		return nil, fmt.Errorf("solid: build public jwk: %w", err)
	}
	raw, err := json.Marshal(pub)
	if err != nil {
		return nil, fmt.Errorf("solid: encode public jwk: %w", err)
	}
	var pubMap map[string]any
	if err := json.Unmarshal(raw, &pubMap); err != nil {
		return nil, fmt.Errorf("solid: decode public jwk: %w", err)
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"webid"},
	}
	return &Session{
		webID:     cfg.WebID,
		key:       key,
		publicJWK: pubMap,
		tokens:    cc.TokenSource(ctx),
	}, nil
}

// WebID returns the authenticated agent's WebID.
func (s *Session) WebID() string { return s.webID }

// Authorize implements Authenticator: attaches the access token and a DPoP
// proof for this request's method and URL.
func (s *Session) Authorize(req *http.Request) error {
	tok, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("solid: fetch access token: %w", err)
	}
	proof, err := s.proof(req.Method, req.URL.String())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "DPoP "+tok.AccessToken)
	req.Header.Set("DPoP", proof)
	return nil
}

// proof signs a single-use DPoP proof JWT for (method, url).
func (s *Session) proof(method, url string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"jti": uuid.NewString(),
		"htm": method,
		"htu": url,
		"iat": now.Unix(),
	})
	t.Header["typ"] = "dpop+jwt"
	t.Header["jwk"] = s.publicJWK
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("solid: sign dpop proof: %w", err)
	}
	return signed, nil
}
