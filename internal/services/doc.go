// Package services defines the capabilities the playlist engine needs from a music streaming
// provider and implements them for Spotify.
//
// # Capabilities
//
//   - [Searcher] : free-text track search, candidates in provider rank order
//   - [PlaylistStore] : playlist creation, batched adds and removals, paginated reads
//   - [Service] : both of the above plus a display name
//
// The engine depends on these interfaces only, so tests substitute in-memory doubles.
//
// # Spotify Implementation
//
// [SpotifyService] wraps github.com/zmb3/spotify/v2. Authentication goes through spotifyauth;
// the [oauth2.Token] saved by the auth command is handed to [SpotifyService.Authenticate] and
// refreshed transparently by the oauth2 transport. Adds and removals are sent in batches of
// [MaxBatchSize].
//
// # Error Handling
//
// Services wrap typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : a remote call was made before Authenticate
//   - [shared.ErrSearchFailed] : the search request failed
//   - [shared.ErrRemoteWrite] : a playlist write failed part way, with the count already applied
//   - [shared.ErrAPIRequest] : any other request failure
package services
