package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicmgr/internal/services"
	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/desertthunder/musicmgr/internal/tasks"
	"github.com/desertthunder/musicmgr/internal/titles"
	"github.com/desertthunder/musicmgr/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	oauth      services.OAuthService // set when the service was built from the config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.PlaylistEngine
	mu         sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service // skips building the Spotify service from the config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.engine = r.newEngine()
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		initCommand, authCommand, createPlaylistCommand, removeDuplicatesCommand,
		comparePlaylistCommand, addUnmatchedCommand, removeTracksCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup runs once before any command: it loads the .env file and the config, applies the
// environment overlay and validates the result.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if err := shared.LoadEnv(cmd.String("env-file")); err != nil {
		return ctx, err
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
	case err != nil:
		return ctx, err
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return ctx, err
	}

	r.config = config
	r.configPath = path
	r.engine = r.newEngine()
	return ctx, nil
}

func (r *Runner) newEngine() *tasks.PlaylistEngine {
	n := r.config.Normalize
	opts := tasks.EngineOpts{
		Normalizer: titles.NewNormalizer(titles.Rules{
			Extensions:   n.Extensions,
			CutTokens:    n.CutTokens,
			NoisePhrases: n.NoisePhrases,
		}),
		RateLimit: r.config.Search.RateLimit,
		Logger:    r.logger,
	}
	if r.service != nil {
		opts.Service = r.service
	}
	return tasks.NewPlaylistEngine(opts)
}

// oauthContext carries the runner's HTTP client to the oauth2 token requests.
func (r *Runner) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
}

// ensureService builds and authenticates the Spotify service from the config unless a service
// was injected.
func (r *Runner) ensureService(ctx context.Context) error {
	if r.service != nil {
		return nil
	}
	if err := r.config.ValidateCredentials(); err != nil {
		return err
	}

	svc, err := services.NewSpotifyServiceFromConfig(r.config)
	if err != nil {
		return err
	}

	if err := svc.Authenticate(r.oauthContext(ctx), r.config.Credentials.Spotify.Token()); err != nil {
		return err
	}

	r.logger.Debug("authenticated", "service", svc.Name())
	r.service = svc
	r.oauth = svc
	r.engine = r.newEngine()
	return nil
}

// persistToken saves the token when the client refreshed it during the command.
func (r *Runner) persistToken() {
	if r.oauth == nil {
		return
	}

	token, err := r.oauth.Token()
	if err != nil {
		r.logger.Warn("could not read token", "error", err)
		return
	}
	if token.AccessToken == r.config.Credentials.Spotify.AccessToken {
		return
	}

	if err := r.saveTokens(token); err != nil {
		r.logger.Warn("could not save refreshed token", "error", err)
		return
	}
	r.logger.Debug("saved refreshed token", "path", r.configPath)
}

// saveTokens stores token in the config and writes the config file when a path is known.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidArgument)
	}

	r.config.Credentials.Spotify.SetToken(token)
	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// progress starts a printer for engine updates. The returned func closes the channel and
// waits for the printer to drain it.
func (r *Runner) progress() (chan<- tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range ch {
			r.writePlain("%s\n", ui.Progress(update))
		}
	}()

	return ch, func() {
		close(ch)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Styles().Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
