// Package tasks orchestrates the music-manager operations with real-time progress reporting.
//
// # Core Operations
//
// [PlaylistEngine] implements four operations over a [services.Service]:
//
//  1. [PlaylistEngine.CreatePlaylist] : local directory → new remote playlist
//     - Scans the directory and drops duplicate files
//     - Searches each track (see [PlaylistEngine.Match]); the first candidate wins
//     - Creates the playlist only when something matched, then adds tracks in batches
//
//  2. [PlaylistEngine.Compare] : remote playlist ↔ local song list
//     - Fetches the playlist and reconciles it with the list by normalized title
//     - Reports entries unique to each side; pruning either side is a separate step
//
//  3. [PlaylistEngine.AddFromList] : song list → existing playlist
//     - Tries several query variants per "title by artists" line
//     - Returns the lines that could not be found
//
//  4. [PlaylistEngine.RemoveMatching] : removes tracks whose title matches a pattern
//
// # Pacing
//
// Searches run one at a time, paced by a token bucket limiter. There is no parallel dispatch.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
