// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/moviex/internal/formatter"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// searchCommand runs a single settled title search.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Search movies by title",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: append(jsonFlags(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results (default from [search] max_results)",
			},
		),
		Action: r.Search,
	}
}

// discoverCommand composes discover filters.
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Discover movies with genre, language, year and rating filters",
		Flags: append(jsonFlags(),
			&cli.StringFlag{
				Name:  "genre",
				Usage: "Comma separated TMDB genre ids (see 'moviex discover --list-genres')",
			},
			&cli.BoolFlag{
				Name:  "list-genres",
				Usage: "Print the genre ids and exit",
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Original language, ISO 639-1 (e.g. en, hi, te)",
			},
			&cli.IntFlag{
				Name:  "year",
				Usage: "Release year",
			},
			&cli.FloatFlag{
				Name:  "rating",
				Usage: "Minimum average vote (0-10)",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort order: " + strings.Join(models.SortOptions, ", "),
				Value: "popularity.desc",
			},
			&cli.StringFlag{
				Name:  "keywords",
				Usage: "Comma separated TMDB keyword ids",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page (1-500)",
				Value: 1,
			},
		),
		Action: r.Discover,
	}
}

// exploreCommand browses the curated lists.
func exploreCommand(r *Runner) *cli.Command {
	kinds := make([]string, 0, len(models.ListKinds()))
	for _, k := range models.ListKinds() {
		kinds = append(kinds, string(k))
	}

	return &cli.Command{
		Name:      "explore",
		Usage:     "Browse a curated list",
		ArgsUsage: "<" + strings.Join(kinds, "|") + ">",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "list",
			},
		},
		Flags: append(jsonFlags(),
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page (1-500)",
				Value: 1,
			},
		),
		Action: r.Explore,
	}
}

// movieCommand shows full movie details.
func movieCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movie",
		Aliases: []string{"m"},
		Usage:   "Show movie details",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: append(jsonFlags(),
			&cli.BoolFlag{
				Name:  "theme",
				Usage: "Print the colour theme sampled from the poster",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the movie page on themoviedb.org",
			},
		),
		Action: r.Movie,
	}
}

// personCommand shows a person and their filmography.
func personCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "person",
		Usage: "Show a person and their movie credits",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: append(jsonFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of credits to list",
				Value: 15,
			},
		),
		Action: r.Person,
	}
}

// homeCommand prints the home feed.
func homeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "home",
		Usage: "Show the home feed (now playing, trending, genres, regional picks)",
		Flags: append(jsonFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Movies shown per section",
				Value: 5,
			},
		),
		Action: r.Home,
	}
}

// savedCommand manages bookmarked movies.
func savedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "saved",
		Aliases: []string{"bookmarks"},
		Usage:   "Manage saved movies",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List saved movies",
				Flags: append(jsonFlags(),
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Filter by title or overview",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort by added, title, rating or release",
						Value: "added",
					},
				),
				Action: r.SavedList,
			},
			{
				Name:  "add",
				Usage: "Save a movie by TMDB id",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.SavedAdd,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove a saved movie by TMDB id",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.SavedRemove,
			},
			{
				Name:   "clear",
				Usage:  "Remove every saved movie",
				Action: r.SavedClear,
			},
			{
				Name:  "refresh",
				Usage: "Re-fetch metadata for every saved movie",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent TMDB requests",
						Value: 4,
					},
				},
				Action: r.SavedRefresh,
			},
			{
				Name:  "export",
				Usage: "Export saved movies to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   fmt.Sprintf("Export format: %s", formatter.FormatNames()),
						Value:   string(formatter.FormatJSON),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: moviex_export_{timestamp})",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "File name without extension",
						Value: "saved_movies",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Only export movies matching the filter",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort by added, title, rating or release",
						Value: "added",
					},
				},
				Action: r.SavedExport,
			},
		},
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml from the bundled template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// apiCommand handles direct TMDB API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct TMDB API calls for debugging",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the TMDB API, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save the response body to a file",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// cacheCommand inspects the Redis response cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the TMDB response cache",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Check that the configured Redis cache is reachable",
				Action: r.CacheStatus,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive search.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive movie search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/moviex-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the local JSON API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API and Prometheus metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from [server] host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from [server] port)",
			},
		},
		Action: r.Serve,
	}
}
