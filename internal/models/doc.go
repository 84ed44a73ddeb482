// Package models defines the entities shared between the library scanner, the remote service
// and the reports.
//
//   - [Track] : a track as the remote service describes it
//   - [Playlist] : remote playlist metadata
//
// Values are transient: they are built for one command and never persisted.
package models
