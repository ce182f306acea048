package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/drivebridge/drivebridge/internal/tokenfile"
)

// stateTokenBytes is the number of random bytes for the OAuth2 state
// parameter.
const stateTokenBytes = 16

// callbackShutdownTimeout is how long to wait for the callback server to
// drain.
const callbackShutdownTimeout = 5 * time.Second

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize drivebridge with Google (browser flow)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oauth, err := oauthConfig()
			if err != nil {
				return err
			}

			tok, err := browserLogin(cmd.Context(), oauth)
			if err != nil {
				return err
			}

			if err := tokenfile.Save(cfg.Auth.TokenPath, tok); err != nil {
				return err
			}

			statusf("Logged in. Token saved to %s\n", cfg.Auth.TokenPath)

			return nil
		},
	}
}

// callbackResult carries the authorization code or error from the
// callback handler.
type callbackResult struct {
	code string
	err  error
}

// browserLogin performs the authorization code + PKCE flow: bind a
// localhost callback server on a random port, open the browser to
// Google's consent page, receive the code, and exchange it for tokens.
func browserLogin(ctx context.Context, oauth *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("binding callback listener: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	oauth.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	state, err := generateState()
	if err != nil {
		return nil, err
	}

	verifier := oauth2.GenerateVerifier()

	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			resultCh <- callbackResult{err: errors.New("oauth state mismatch")}

			return
		}

		if errMsg := query.Get("error"); errMsg != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			resultCh <- callbackResult{err: fmt.Errorf("authorization denied: %s", errMsg)}

			return
		}

		fmt.Fprintln(w, "Authorization complete. You can close this tab.")
		resultCh <- callbackResult{code: query.Get("code")}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: callbackShutdownTimeout}

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			resultCh <- callbackResult{err: fmt.Errorf("callback server: %w", serveErr)}
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), callbackShutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	if openErr := openBrowser(authURL); openErr != nil {
		statusf("Open this URL in your browser:\n\n  %s\n\n", authURL)
	}

	var result callbackResult
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}

	if result.err != nil {
		return nil, result.err
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: httpClientTimeout})

	tok, err := oauth.Exchange(exchangeCtx, result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	return tok, nil
}

func generateState() (string, error) {
	buf := make([]byte, stateTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// openBrowser launches the default browser for the given URL.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
