package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/moviex/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the TMDB API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	compact := cmd.Bool("json")
	save := cmd.Bool("save")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if r.api == nil {
		return fmt.Errorf("%w: API service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if save {
		saveFile := apiDumpName(path)
		if err := os.WriteFile(saveFile, resp.Body, 0644); err != nil {
			r.logger.Warn("failed to save response", "error", err)
		} else {
			r.logger.Info("response saved", "file", saveFile)
		}
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !compact)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// apiDumpName turns "/movie/550?language=en" into "tmdb_movie_550.json".
func apiDumpName(path string) string {
	path, _, _ = strings.Cut(path, "?")
	name := strings.Trim(strings.ReplaceAll(path, "/", "_"), "_")
	if name == "" {
		name = "root"
	}
	return "tmdb_" + name + ".json"
}
