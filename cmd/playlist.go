package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/musicmgr/internal/formatter"
	"github.com/desertthunder/musicmgr/internal/library"
	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/desertthunder/musicmgr/internal/tasks"
	"github.com/desertthunder/musicmgr/internal/ui"
	"github.com/urfave/cli/v3"
)

// CreatePlaylist scans a directory, matches its tracks on Spotify and creates a playlist.
//
// The unmatched report is written whenever matching ran, including when no playlist was created.
func (r *Runner) CreatePlaylist(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("directory")
	name := cmd.StringArg("name")
	if dir == "" || name == "" {
		return fmt.Errorf("%w: usage: create-playlist <directory> <playlist-name>", shared.ErrMissingArgument)
	}

	reportPath := cmd.String("report")
	format, err := reportFormat(cmd.String("format"), reportPath)
	if err != nil {
		return err
	}
	if reportPath == "" {
		reportPath = formatter.DefaultReportPath(dir, format)
	}

	if err := r.ensureService(ctx); err != nil {
		return err
	}
	defer r.persistToken()

	opts := tasks.CreateOpts{
		Description: cmd.String("description"),
		Public:      cmd.Bool("public"),
		Scan: library.ScanOptions{
			Extensions: r.config.Library.Extensions,
			ReadTags:   r.config.Library.ReadTags && !cmd.Bool("no-tags"),
			Logger:     r.logger,
		},
	}

	r.writePlainHeader("Creating playlist " + name)
	progress, wait := r.progress()
	result, err := r.engine.CreatePlaylist(ctx, dir, name, opts, progress)
	wait()
	if result == nil {
		return err
	}

	r.writePlainln("%s", ui.CreateSummary(result))

	playlistID := ""
	if result.Playlist != nil {
		playlistID = result.Playlist.ID
	}
	data, exportErr := formatter.ExportUnmatched(formatter.NewUnmatchedReport(result.Report, playlistID), format)
	if exportErr == nil {
		exportErr = formatter.WriteReport(reportPath, data)
	}
	if exportErr != nil {
		return exportErr
	}
	r.writePlain("Unmatched report written to %s\n", reportPath)

	return err
}

// AddUnmatched searches for each line of a song list, adds the matches to a playlist and
// rewrites the file with the lines that were not found.
func (r *Runner) AddUnmatched(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist-id")
	path := cmd.StringArg("file")
	if playlistID == "" || path == "" {
		return fmt.Errorf("%w: usage: add-unmatched <playlist-id> <file>", shared.ErrMissingArgument)
	}

	lines, err := shared.ReadLines(path, true)
	if err != nil {
		return err
	}

	if err := r.ensureService(ctx); err != nil {
		return err
	}
	defer r.persistToken()

	progress, wait := r.progress()
	result, err := r.engine.AddFromList(ctx, playlistID, lines, progress)
	wait()
	if err != nil {
		return err
	}

	if err := shared.WriteLines(path, result.NotFound); err != nil {
		return err
	}

	r.writePlainln("%s", ui.AddSummary(result))
	r.writePlain("%d entries left in %s\n", len(result.NotFound), path)
	return nil
}

// RemoveTracks removes the playlist tracks whose title matches --pattern.
func (r *Runner) RemoveTracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist-id")
	if playlistID == "" {
		return fmt.Errorf("%w: usage: remove-tracks <playlist-id>", shared.ErrMissingArgument)
	}

	pattern, err := regexp.Compile(cmd.String("pattern"))
	if err != nil {
		return fmt.Errorf("%w: --pattern: %v", shared.ErrInvalidFlag, err)
	}

	if err := r.ensureService(ctx); err != nil {
		return err
	}
	defer r.persistToken()

	progress, wait := r.progress()
	result, err := r.engine.RemoveMatching(ctx, playlistID, pattern, cmd.Bool("dry-run"), progress)
	wait()
	if result != nil {
		r.writePlainln("%s", ui.RemoveSummary(result))
	}
	return err
}

// reportFormat resolves --format, falling back to the report path's extension.
func reportFormat(flag, path string) (formatter.Format, error) {
	if strings.TrimSpace(flag) != "" {
		return formatter.ParseFormat(flag)
	}
	if path != "" {
		return formatter.FormatFromPath(path), nil
	}
	return formatter.FormatText, nil
}
