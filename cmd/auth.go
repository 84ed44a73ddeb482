package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/musicmgr/internal/server"
	"github.com/desertthunder/musicmgr/internal/services"
	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Init writes the example configuration to the --config path.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}

	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			return fmt.Errorf("%w: %s already exists, use --force to overwrite", shared.ErrInvalidArgument, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrFileAccess, err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlain("  Set client_id and client_secret, or %s and %s, then run `musicmgr auth`.\n", shared.EnvClientID, shared.EnvClientSecret)
	return nil
}

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, exchanges the code for
// a token and saves it to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.ValidateCredentials(); err != nil {
		return err
	}

	svc, err := services.NewSpotifyServiceFromConfig(r.config)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, svc)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n", r.configPath)
	return nil
}

// contextExchanger sends token requests through the runner's HTTP client.
type contextExchanger struct {
	server.Exchanger
	client *http.Client
}

func (e contextExchanger) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return e.Exchanger.Exchange(context.WithValue(ctx, oauth2.HTTPClient, e.client), code, opts...)
}

// callbackAddr returns the listen address and callback path for the redirect URI. The
// [server] section supplies the address when the URI has no explicit port.
func callbackAddr(redirectURI string, cfg shared.ServerConfig) (string, string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	host, port := cfg.Host, strconv.Itoa(cfg.Port)
	if u.Port() != "" {
		host, port = u.Hostname(), u.Port()
	}
	return net.JoinHostPort(host, port), u.Path, nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, svc services.OAuthService) (*oauth2.Token, error) {
	addr, path, err := callbackAddr(r.config.Credentials.Spotify.RedirectURI, r.config.Server)
	if err != nil {
		return nil, err
	}

	state := shared.GenerateState()
	authURL := svc.AuthURL(state)

	oauthHandler := server.NewOAuthHandler(contextExchanger{Exchanger: svc, client: r.httpClient}, state, path)
	router := server.NewBasicRouter()
	router.Use(server.LogRequests(r.logger))
	router.Handler(oauthHandler)

	httpServer := server.New(addr, router)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: callback server on %s: %v", shared.ErrServiceUnavailable, addr, err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("%w: callback server: %v", shared.ErrServiceUnavailable, err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
