package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"borrowhub-notify/internal/common/errors"
)

// TokenSource supplies the bearer token for outgoing Borrowing Hub requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a pre-issued token unchanged.
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", errors.NewTokenExpiredError("no token configured")
	}
	return s.token, nil
}

// TokenResponse holds the response from the hub's token endpoint.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"` // seconds
}

// SessionClient logs in against the Borrowing Hub token endpoint with the
// password grant and caches the bearer token until shortly before expiry.
type SessionClient struct {
	tokenURL   string
	username   string
	password   string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewSessionClient(tokenURL, username, password string) *SessionClient {
	return &SessionClient{
		tokenURL:   strings.TrimSuffix(tokenURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns a valid bearer token, logging in again when the cached one
// has expired.
func (s *SessionClient) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && s.tokenExpiry.After(time.Now()) {
		return s.accessToken, nil
	}

	if err := s.login(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

// login fetches a new access token. Callers must hold s.mu.
func (s *SessionClient) login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username": s.username,
		"password": s.password,
	})
	if err != nil {
		return fmt.Errorf("marshal login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.NewTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(resp.Body)
		return errors.NewAuthenticationError(string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.NewServerError(resp.StatusCode, string(body))
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return errors.NewResponseDecodeError(err)
	}
	if token.AccessToken == "" {
		return errors.NewAuthenticationError("token endpoint returned no access token")
	}

	// Refresh one minute early so in-flight requests never carry a token
	// that expires mid-request.
	expiresIn := time.Duration(token.ExpiresIn) * time.Second
	if expiresIn > time.Minute {
		expiresIn -= time.Minute
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = time.Now().Add(expiresIn)
	return nil
}
