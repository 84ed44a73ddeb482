// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/musicmgr/internal/formatter"
	"github.com/desertthunder/musicmgr/internal/tasks"
	"github.com/urfave/cli/v3"
)

func formatUsage() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return fmt.Sprintf("Report format (%s), defaults to the report file extension", strings.Join(names, ", "))
}

// initCommand writes an example config file.
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write an example configuration file to the --config path",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing file",
			},
		},
		Action: r.Init,
	}
}

// authCommand runs the Spotify OAuth flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authorize with Spotify and save the token to the config file",
		Action: r.Auth,
	}
}

// createPlaylistCommand builds a playlist from a local music directory.
func createPlaylistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "create-playlist",
		Usage: "Create a Spotify playlist from the audio files in a directory",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "directory"},
			&cli.StringArg{Name: "name"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "Unmatched report path (default: <directory>_unmatched.<format> next to the directory)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: formatUsage(),
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Playlist description",
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Make the playlist public",
			},
			&cli.BoolFlag{
				Name:  "no-tags",
				Usage: "Do not read ID3/FLAC tags",
			},
		},
		Action: r.CreatePlaylist,
	}
}

// removeDuplicatesCommand deduplicates a song list file.
func removeDuplicatesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "remove-duplicates",
		Aliases: []string{"dedupe"},
		Usage:   "Remove duplicate entries from a song list, keeping the first occurrence",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "input"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (default: overwrite the input)",
			},
		},
		Action: r.RemoveDuplicates,
	}
}

// comparePlaylistCommand reconciles a playlist with a song list.
func comparePlaylistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "compare-playlist",
		Usage: "Compare a Spotify playlist with a song list",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist-id"},
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the comparison report to this file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: formatUsage(),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the comparison as JSON",
			},
			&cli.BoolFlag{
				Name:  "prune-local",
				Usage: "Rewrite the song list keeping only the entries missing from the playlist",
			},
			&cli.BoolFlag{
				Name:  "prune-remote",
				Usage: "Remove the playlist tracks missing from the song list",
			},
		},
		Action: r.ComparePlaylist,
	}
}

// addUnmatchedCommand searches a song list and adds what it finds to a playlist.
func addUnmatchedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add-unmatched",
		Usage: "Search for each song list entry, add the matches to a playlist and keep the rest in the file",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist-id"},
			&cli.StringArg{Name: "file"},
		},
		Action: r.AddUnmatched,
	}
}

// removeTracksCommand removes tracks by title pattern.
func removeTracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "remove-tracks",
		Usage: "Remove playlist tracks whose title matches a pattern",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist-id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "pattern",
				Usage: "Regular expression matched against track titles",
				Value: tasks.DefaultRemovePattern,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List the matching tracks without removing them",
			},
		},
		Action: r.RemoveTracks,
	}
}
