// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/vibe/internal/formatter"
	"github.com/urfave/cli/v3"
)

func sourceFlag() *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "Source to query (itunes, jiosaavn); repeat for several. Defaults to sources.enabled",
	}
}

func formatFlag() *cli.StringFlag {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   fmt.Sprintf("Output format (%s)", strings.Join(names, ", ")),
		Value:   string(formatter.FormatTable),
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the output to a file instead of stdout",
	}
}

func seedFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "seed",
		Usage: "Index of the search result the playlist is built around",
		Value: 0,
	}
}

// searchCommand runs one search and prints the merged results
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Search enabled sources and print merged, deduplicated results",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			sourceFlag(),
			formatFlag(),
			outputFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results to print, 0 for all",
			},
		},
		Action: r.Search,
	}
}

// playlistCommand builds a playlist and prints its play order
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Build a playlist around one search result and print the play order",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			sourceFlag(),
			formatFlag(),
			outputFlag(),
			seedFlag(),
			&cli.Uint64Flag{
				Name:  "rand-seed",
				Usage: "Seed for tie-breaking and shuffling; 0 picks a random order",
			},
		},
		Action: r.Playlist,
	}
}

// playCommand sequences through a playlist with the simulated output
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Build a playlist and play through its previews",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			sourceFlag(),
			seedFlag(),
			&cli.IntFlag{
				Name:    "tracks",
				Aliases: []string{"n"},
				Usage:   "Stop after this many tracks, 0 plays the whole playlist",
			},
			&cli.DurationFlag{
				Name:  "preview",
				Usage: "Simulated preview length (defaults to playback.preview_length)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open tracks without a preview in the browser",
			},
		},
		Action: r.Play,
	}
}

// themeCommand reads and saves the UI theme preference
func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Show or change the saved UI theme",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the saved theme",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ThemeGet,
			},
			{
				Name:  "set",
				Usage: "Save the theme (light or dark)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "theme"},
				},
				Action: r.ThemeSet,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml populated with the defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive search and playback.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.TUI,
	}
}
