package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/drivebridge/drivebridge/internal/tokenfile"
)

// ErrAuthorization is returned when the authorizer fails or yields no
// usable token.
var ErrAuthorization = errors.New("export: authorization failed")

// AuthOptions configures a single authorization request. Interactive
// requests may prompt the user for consent; non-interactive requests must
// succeed silently or fail.
type AuthOptions struct {
	Interactive bool
}

// Authorizer yields a bearer access token for one operation. The OAuth
// consent flow itself lives behind this interface; the export service
// only ever sees tokens.
type Authorizer interface {
	Authorize(ctx context.Context, opts AuthOptions) (string, error)
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, opts AuthOptions) (string, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, opts AuthOptions) (string, error) {
	return f(ctx, opts)
}

// TokenFileAuthorizer authorizes from a saved token file, refreshing
// through the OAuth2 config when the access token has expired. The
// interactive consent flow is the login command; when no token file
// exists this authorizer fails with a pointer to it.
type TokenFileAuthorizer struct {
	path   string
	config *oauth2.Config
	logger *slog.Logger

	mu     sync.Mutex
	source oauth2.TokenSource
}

func NewTokenFileAuthorizer(path string, config *oauth2.Config, logger *slog.Logger) *TokenFileAuthorizer {
	if logger == nil {
		logger = slog.Default()
	}

	return &TokenFileAuthorizer{path: path, config: config, logger: logger}
}

// Authorize returns a fresh access token, loading the saved token on
// first use and letting the oauth2 token source refresh it as needed.
func (a *TokenFileAuthorizer) Authorize(ctx context.Context, _ AuthOptions) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.source == nil {
		saved, err := tokenfile.Load(a.path)
		if err != nil {
			return "", err
		}

		if saved == nil {
			return "", fmt.Errorf("no saved credentials at %s, run 'drivebridge login' first", a.path)
		}

		// The token source outlives this request's context: refreshes
		// happen lazily on later calls.
		a.source = a.config.TokenSource(context.WithoutCancel(ctx), saved)
	}

	token, err := a.source.Token()
	if err != nil {
		// Drop the source so the next call reloads from disk; the user
		// may have re-run login in the meantime.
		a.source = nil

		return "", fmt.Errorf("refreshing token: %w", err)
	}

	if token.AccessToken == "" {
		return "", errors.New("token source returned an empty access token")
	}

	return token.AccessToken, nil
}
