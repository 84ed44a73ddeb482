package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicmgr/internal/formatter"
	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/desertthunder/musicmgr/internal/ui"
	"github.com/urfave/cli/v3"
)

// RemoveDuplicates rewrites a song list without duplicate entries. No credentials are needed.
func (r *Runner) RemoveDuplicates(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("input")
	if input == "" {
		return fmt.Errorf("%w: usage: remove-duplicates <input-file>", shared.ErrMissingArgument)
	}

	output := cmd.String("output")
	if output == "" {
		output = input
	}

	lines, err := shared.ReadLines(input, false)
	if err != nil {
		return err
	}

	kept, removed := r.engine.Normalizer().Dedupe(lines)
	r.logger.Debug("deduplicated", "input", input, "entries", len(lines), "removed", removed)

	if err := shared.WriteLines(output, kept); err != nil {
		return err
	}

	return r.writePlain("%s", ui.DedupeSummary(output, len(kept), removed))
}

// ComparePlaylist prints the entries that exist on only one side of a playlist and a song list.
// --prune-local and --prune-remote apply the result.
func (r *Runner) ComparePlaylist(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist-id")
	path := cmd.StringArg("file")
	if playlistID == "" || path == "" {
		return fmt.Errorf("%w: usage: compare-playlist <playlist-id> <file>", shared.ErrMissingArgument)
	}

	reportPath := cmd.String("output")
	format, err := reportFormat(cmd.String("format"), reportPath)
	if err != nil {
		return err
	}

	lines, err := shared.ReadLines(path, true)
	if err != nil {
		return err
	}

	if err := r.ensureService(ctx); err != nil {
		return err
	}
	defer r.persistToken()

	cmp, err := r.engine.Compare(ctx, playlistID, lines, nil)
	if err != nil {
		return err
	}

	report := formatter.NewComparisonReport(cmp, path)
	if cmd.Bool("json") {
		if err := r.writeJSON(report, true); err != nil {
			return err
		}
	} else {
		r.writePlainHeader("Playlist " + playlistID)
		r.writePlain("%s", ui.CompareSummary(cmp))
	}

	if reportPath != "" {
		data, err := formatter.ExportComparison(report, format)
		if err != nil {
			return err
		}
		if err := formatter.WriteReport(reportPath, data); err != nil {
			return err
		}
		r.logger.Info("comparison report written", "path", reportPath)
	}

	if cmd.Bool("prune-local") {
		if err := shared.WriteLines(path, cmp.OnlyInLocal); err != nil {
			return err
		}
		r.logger.Info("song list pruned", "path", path, "entries", len(cmp.OnlyInLocal))
	}

	if cmd.Bool("prune-remote") {
		removed, err := r.engine.PruneRemote(ctx, cmp, nil)
		if err != nil {
			return err
		}
		r.logger.Info("playlist pruned", "playlist", playlistID, "removed", removed)
	}

	return nil
}
