package services

import (
	"context"

	"github.com/desertthunder/musicmgr/internal/models"
	"golang.org/x/oauth2"
)

// MaxBatchSize is the largest number of track IDs sent in one playlist write.
const MaxBatchSize = 100

// Searcher finds candidate tracks for a free-text query.
type Searcher interface {
	// FindTrack returns candidates in the provider's rank order. An empty slice means no match.
	FindTrack(ctx context.Context, query string) ([]models.Track, error)
}

// PlaylistStore reads and writes remote playlists.
type PlaylistStore interface {
	// CreatePlaylist creates a playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends tracks in batches and returns how many were added before any failure.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error)

	// PlaylistTracks returns every track of the playlist in playlist order.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// RemoveTracks removes every occurrence of the given tracks.
	RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// Service is a music provider that can search and manage playlists.
type Service interface {
	Searcher
	PlaylistStore

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [Service] with the authorization code flow used by the auth command.
type OAuthService interface {
	Service

	// AuthURL returns the URL the user visits to grant access.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// Authenticate builds the API client from a saved or freshly exchanged token.
	Authenticate(ctx context.Context, token *oauth2.Token) error

	// Token returns the current, possibly refreshed, token.
	Token() (*oauth2.Token, error)
}

// Batches splits ids into consecutive chunks of at most size elements.
func Batches[T any](ids []T, size int) [][]T {
	if size <= 0 {
		size = MaxBatchSize
	}
	var out [][]T
	for i := 0; i < len(ids); i += size {
		out = append(out, ids[i:min(i+size, len(ids))])
	}
	return out
}
