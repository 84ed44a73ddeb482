// Spotify Web API implementation of [Service]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/musicmgr/internal/models"
	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const defaultSearchLimit = 5

// SpotifyScopes are the permissions requested during authorization.
var SpotifyScopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	SearchLimit  int    // candidates requested per search, defaults to 5
	Market       string // optional ISO 3166-1 market for searches
	BaseURL      string // API base URL override, used by tests
}

// SpotifyService implements [OAuthService] on top of [spotify.Client].
type SpotifyService struct {
	auth    *spotifyauth.Authenticator
	client  *spotify.Client
	opts    SpotifyOpts
	baseURL string
}

// NewSpotifyService creates a Spotify service from the application credentials.
//
// The service cannot make API calls until [SpotifyService.Authenticate] is called with a token.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(opts.ClientID),
		spotifyauth.WithClientSecret(opts.ClientSecret),
		spotifyauth.WithRedirectURL(opts.RedirectURI),
		spotifyauth.WithScopes(SpotifyScopes...),
	)

	baseURL := opts.BaseURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &SpotifyService{auth: auth, opts: opts, baseURL: baseURL}, nil
}

// NewSpotifyServiceFromConfig builds a service from the [shared.Config] credentials and
// search settings.
func NewSpotifyServiceFromConfig(config *shared.Config) (*SpotifyService, error) {
	sp := config.Credentials.Spotify
	return NewSpotifyService(SpotifyOpts{
		ClientID:     sp.ClientID,
		ClientSecret: sp.ClientSecret,
		RedirectURI:  sp.RedirectURI,
		SearchLimit:  config.Search.Limit,
		Market:       config.Search.Market,
	})
}

// Name returns "Spotify".
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the authorization URL for the given state.
func (s *SpotifyService) AuthURL(state string) string {
	return s.auth.AuthURL(state)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := s.auth.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Authenticate builds the API client. The oauth2 transport refreshes the token when it expires.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: no spotify token, run the auth command", shared.ErrNotAuthenticated)
	}

	s.client = spotify.New(s.httpClient(ctx, token), s.clientOptions()...)
	return nil
}

func (s *SpotifyService) httpClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return s.auth.Client(ctx, token)
}

func (s *SpotifyService) clientOptions() []spotify.ClientOption {
	opts := []spotify.ClientOption{spotify.WithRetry(true)}
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}
	return opts
}

// Token returns the current token, which may have been refreshed since Authenticate.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.client.Token()
}

// FindTrack searches for tracks matching query.
func (s *SpotifyService) FindTrack(ctx context.Context, query string) ([]models.Track, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}

	opts := []spotify.RequestOption{spotify.Limit(s.opts.SearchLimit)}
	if s.opts.Market != "" {
		opts = append(opts, spotify.Market(s.opts.Market))
	}

	result, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", shared.ErrSearchFailed, query, err)
	}

	if result.Tracks == nil {
		return []models.Track{}, nil
	}

	tracks := make([]models.Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// CreatePlaylist creates a playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: getting current user: %v", shared.ErrAPIRequest, err)
	}

	playlist, err := s.client.CreatePlaylistForUser(ctx, user.ID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("%w: creating playlist %q: %v", shared.ErrRemoteWrite, name, err)
	}

	return &models.Playlist{
		ID:          playlist.ID.String(),
		Name:        playlist.Name,
		Description: description,
		Public:      public,
	}, nil
}

// AddTracks adds tracks in batches of [MaxBatchSize].
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error) {
	if s.client == nil {
		return 0, shared.ErrNotAuthenticated
	}

	added := 0
	for _, batch := range Batches(toIDs(trackIDs), MaxBatchSize) {
		if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...); err != nil {
			return added, fmt.Errorf("%w: added %d of %d tracks: %v", shared.ErrRemoteWrite, added, len(trackIDs), err)
		}
		added += len(batch)
	}
	return added, nil
}

// RemoveTracks removes all occurrences of the tracks in batches of [MaxBatchSize].
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if s.client == nil {
		return shared.ErrNotAuthenticated
	}

	removed := 0
	for _, batch := range Batches(toIDs(trackIDs), MaxBatchSize) {
		if _, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), batch...); err != nil {
			return fmt.Errorf("%w: removed %d of %d tracks: %v", shared.ErrRemoteWrite, removed, len(trackIDs), err)
		}
		removed += len(batch)
	}
	return nil
}

// PlaylistTracks fetches every track of a playlist, following pagination. Local files and
// episodes, which have no track object, are skipped.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(100))
	if err != nil {
		return nil, fmt.Errorf("%w: fetching playlist %s: %v", shared.ErrAPIRequest, playlistID, err)
	}

	tracks := []models.Track{}
	for {
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, convertTrack(*item.Track.Track))
		}

		err = s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: fetching next page of %s: %v", shared.ErrAPIRequest, playlistID, err)
		}
	}

	return tracks, nil
}

func convertTrack(t spotify.FullTrack) models.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return models.Track{
		ID:      t.ID.String(),
		URI:     string(t.URI),
		Title:   t.Name,
		Artists: artists,
		Album:   t.Album.Name,
	}
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}
