package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override the credentials in the config file.
const (
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURL  = "SPOTIFY_REDIRECT_URL"
)

const placeholderPrefix = "your_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Search      SearchConfig      `toml:"search"`
	Normalize   NormalizeConfig   `toml:"normalize"`
	Library     LibraryConfig     `toml:"library"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the token saved by the auth command.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenType    string    `toml:"token_type"`
	Expiry       time.Time `toml:"expiry,omitempty"`
}

// ServerConfig contains the OAuth callback server address.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SearchConfig controls how track searches are issued.
type SearchConfig struct {
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 disables pacing
	Limit     int     `toml:"limit"`      // candidates requested per search
	Market    string  `toml:"market"`
}

// NormalizeConfig holds the title normalization rules. Omitted lists use the built-in rules.
type NormalizeConfig struct {
	Extensions   []string `toml:"extensions"`
	CutTokens    []string `toml:"cut_tokens"`
	NoisePhrases []string `toml:"noise_phrases"`
}

// LibraryConfig controls the local library scan.
type LibraryConfig struct {
	Extensions []string `toml:"extensions"`
	ReadTags   bool     `toml:"read_tags"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path. Keys missing
// from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrFileAccess, path, err)
	}

	config := DefaultConfig()
	config.Normalize = NormalizeConfig{}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, fs.ErrExist)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("%w: failed to write config file: %v", ErrFileAccess, err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("%w: failed to encode config: %v", ErrInvalidConfig, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("%w: failed to write config file %s: %v", ErrFileAccess, path, err)
	}
	return nil
}

// LoadEnv loads variables from a .env file into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to load %s: %v", ErrFileAccess, path, err)
	}
	return nil
}

// ApplyEnv overrides the Spotify credentials with the values of [EnvClientID], [EnvClientSecret]
// and [EnvRedirectURL] when they are set.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	sp := &c.Credentials.Spotify
	for key, field := range map[string]*string{
		EnvClientID:     &sp.ClientID,
		EnvClientSecret: &sp.ClientSecret,
		EnvRedirectURL:  &sp.RedirectURI,
	} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.Search.RateLimit < 0 {
		return fmt.Errorf("%w: search.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Search.Limit < 0 || c.Search.Limit > 50 {
		return fmt.Errorf("%w: search.limit must be between 0 and 50", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// ValidateCredentials reports [ErrMissingCredentials] when the Spotify client ID or secret is
// unset or still holds the example placeholder.
func (c *Config) ValidateCredentials() error {
	sp := c.Credentials.Spotify
	var missing []string
	if sp.ClientID == "" || strings.HasPrefix(sp.ClientID, placeholderPrefix) {
		missing = append(missing, "client_id ("+EnvClientID+")")
	}
	if sp.ClientSecret == "" || strings.HasPrefix(sp.ClientSecret, placeholderPrefix) {
		missing = append(missing, "client_secret ("+EnvClientSecret+")")
	}
	if sp.RedirectURI == "" {
		missing = append(missing, "redirect_uri ("+EnvRedirectURL+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: spotify %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Token returns the saved OAuth token, or nil when none has been stored.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// SetToken stores token in the config. An empty refresh token keeps the previous one, since
// refresh responses may omit it.
func (s *SpotifyConfig) SetToken(token *oauth2.Token) {
	if token == nil {
		return
	}
	s.AccessToken = token.AccessToken
	s.TokenType = token.TokenType
	s.Expiry = token.Expiry
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
}
