package identityhttp

// Package identityhttp implements the Identity port against the EduStack
// identity backend's REST surface. Token issuance and refresh go through the
// OAuth2 resource-owner-password grant; when an OIDC discovery URL is
// configured, ID tokens are verified locally during ValidateToken.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/edustack/sessionkit/internal/domain/session"
	apperrors "github.com/edustack/sessionkit/internal/errors"
	"github.com/edustack/sessionkit/internal/ports"
)

// Config holds configuration for the HTTP identity client.
type Config struct {
	// BaseURL is the identity backend root, e.g. https://id.edustack.io.
	BaseURL string
	// TokenURL is the OAuth2 token endpoint; defaults to BaseURL + "/v1/auth/token".
	TokenURL string
	// ClientID and ClientSecret identify this client to the token endpoint.
	ClientID     string
	ClientSecret string
	// Scope is a space-separated scope list for the password grant.
	Scope string
	// DiscoveryURL enables local ID-token verification when set. It may point
	// at the issuer or at its /.well-known/openid-configuration document.
	DiscoveryURL string
	// Credentials persists token material across restarts. Required.
	Credentials ports.CredentialStore
	// HTTPClient is optional and defaults to a 30s-timeout client.
	HTTPClient *http.Client
	// Logger is optional and defaults to slog.Default().
	Logger *slog.Logger
}

// Client implements ports.Identity over HTTP.
type Client struct {
	baseURL    string
	oauth      *oauth2.Config
	creds      ports.CredentialStore
	httpClient *http.Client
	logger     *slog.Logger
	verifier   *gooidc.IDTokenVerifier
	now        func() time.Time
}

var _ ports.Identity = (*Client)(nil)

// NewClient creates an HTTP identity client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identityhttp: base URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("identityhttp: client ID is required")
	}
	if cfg.Credentials == nil {
		return nil, errors.New("identityhttp: credential store is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = baseURL + "/v1/auth/token"
	}

	c := &Client{
		baseURL:    baseURL,
		creds:      cfg.Credentials,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
			Scopes:       strings.Fields(cfg.Scope),
		},
	}

	if cfg.DiscoveryURL != "" {
		// Single discovery fetch at construction time, as with any OIDC client.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
		issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
		issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
		provider, err := gooidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery: %w", err)
		}
		c.verifier = provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID})
	}

	return c, nil
}

// oauthContext routes the oauth2 library's calls through our HTTP client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) Login(ctx context.Context, email, password string) (session.User, error) {
	if email == "" || password == "" {
		return session.User{}, apperrors.Validation("email and password are required")
	}

	tok, err := c.oauth.PasswordCredentialsToken(c.oauthContext(ctx), email, password)
	if err != nil {
		return session.User{}, mapTokenError(err)
	}

	if err := c.creds.Save(ctx, credentialsFromToken(tok)); err != nil {
		return session.User{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist credentials")
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		return session.User{}, err
	}
	return user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, true)
}

func (c *Client) SwitchRole(ctx context.Context, role session.Role) (session.User, error) {
	var payload userPayload
	body := map[string]string{"role": string(role)}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/switch-role", body, &payload, true); err != nil {
		return session.User{}, err
	}
	return payload.toUser(), nil
}

func (c *Client) RefreshToken(ctx context.Context) (ports.Credentials, error) {
	stored, err := c.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoCredentials) {
			return ports.Credentials{}, apperrors.Unauthenticated("no session to refresh")
		}
		return ports.Credentials{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "load credentials")
	}
	if stored.RefreshToken == "" {
		return ports.Credentials{}, apperrors.Unauthenticated("no refresh token")
	}

	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: stored.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return ports.Credentials{}, mapTokenError(err)
	}

	fresh := credentialsFromToken(tok)
	if fresh.IDToken == "" {
		fresh.IDToken = stored.IDToken
	}
	if err := c.creds.Save(ctx, fresh); err != nil {
		return ports.Credentials{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist credentials")
	}
	return fresh, nil
}

func (c *Client) ValidateToken(ctx context.Context) (bool, error) {
	if c.verifier != nil {
		stored, err := c.creds.Load(ctx)
		if err != nil {
			if errors.Is(err, ports.ErrNoCredentials) {
				return false, nil
			}
			return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "load credentials")
		}
		if stored.IDToken != "" {
			// An invalid token is a negative answer, not a transport failure.
			if _, err := c.verifier.Verify(ctx, stored.IDToken); err != nil {
				c.logger.Debug("local id_token verification failed", "error", err)
				return false, nil
			}
			return true, nil
		}
	}

	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/auth/validate", nil, &out, true); err != nil {
		if apperrors.IsUnauthenticated(err) {
			return false, nil
		}
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	if in.Current == "" || in.New == "" {
		return apperrors.Validation("current and new password are required")
	}
	body := map[string]string{
		"current_password": in.Current,
		"new_password":     in.New,
	}
	return c.do(ctx, http.MethodPost, "/v1/auth/password", body, nil, true)
}

func (c *Client) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	if in.Email == "" {
		return apperrors.Validation("email is required")
	}
	body := map[string]string{"email": in.Email}
	return c.do(ctx, http.MethodPost, "/v1/auth/password/reset", body, nil, false)
}

func (c *Client) CurrentUser(ctx context.Context) (session.User, error) {
	var payload userPayload
	if err := c.do(ctx, http.MethodGet, "/v1/users/me", nil, &payload, true); err != nil {
		return session.User{}, err
	}
	return payload.toUser(), nil
}

func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	stored, err := c.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoCredentials) {
			return false, nil
		}
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "load credentials")
	}
	if stored.Empty() {
		return false, nil
	}
	// An expired access token still counts while a refresh token remains.
	if stored.Expired(c.now()) && stored.RefreshToken == "" {
		return false, nil
	}
	return true, nil
}

func (c *Client) Permissions(ctx context.Context) ([]string, error) {
	var out struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/users/me/permissions", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Permissions, nil
}

func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/auth/session", nil, &out, true); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) ClearAuthData(ctx context.Context) error {
	if err := c.creds.Clear(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "clear credentials")
	}
	return nil
}
