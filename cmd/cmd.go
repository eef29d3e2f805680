// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringSliceFlag{
			Name:  "env",
			Usage: "Path to a .env file with credential overrides (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func inputArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "file"}}
}

// linksCommand handles link extraction
func linksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "links",
		Usage: "Extract music links from text",
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "List Apple Music and Spotify links found in a file",
				Arguments: inputArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dated",
						Usage: "Read WhatsApp-style [DD/MM/YYYY, ...] line prefixes as share dates",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Write the links to a Date,Link,Platform CSV file",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Record the links in the history database",
					},
				},
				Action: r.LinksExtract,
			},
			{
				Name:      "ids",
				Usage:     "Parse platform ids from the links in a file",
				Arguments: inputArg(),
				Action:    r.LinksIDs,
			},
		},
	}
}

// appleCommand handles Apple Music page reads
func appleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "apple",
		Usage: "Apple Music operations",
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Read title and artist from an Apple Music page",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Action:    r.AppleParse,
			},
		},
	}
}

// convertCommand matches Apple Music links on Spotify
func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Match the Apple Music links in a file to Spotify tracks",
		Arguments: inputArg(),
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "Score a match must exceed (0-1)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Search results considered per link",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown or csv",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write results to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "export-dir",
				Usage: "Also write every export format and a manifest to this directory",
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Create a Spotify playlist with this name from the matched links",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Record the outcomes in the history database",
			},
		},
		Action: r.Convert,
	}
}

// playlistCommand handles playlist creation
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a Spotify playlist from the Spotify and Apple Music links in a file",
				Arguments: inputArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
						Value: "Created by songlinks",
					},
					&cli.BoolFlag{
						Name:  "private",
						Usage: "Make playlist private",
					},
					&cli.IntFlag{
						Name:  "max-per-playlist",
						Usage: "Split into parts of at most this many songs, counting an album as 10 (0 keeps one playlist)",
					},
				},
				Action: r.PlaylistCreate,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.SpotifyAuth,
			},
			{
				Name:   "whoami",
				Usage:  "Show the authorized Spotify user",
				Action: r.SpotifyWhoami,
			},
			{
				Name:      "search",
				Usage:     "Search Spotify tracks",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "albums",
						Usage: "Search albums instead of tracks",
					},
				},
				Action: r.SpotifySearch,
			},
		},
	}
}

// serveCommand runs the REST API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from config)",
			},
			&cli.StringFlag{
				Name:  "cors-origin",
				Usage: "Access-Control-Allow-Origin value",
				Value: "*",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Record conversions in the history database and serve /api/history",
			},
		},
		Action: r.Serve,
	}
}

// historyCommand lists recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs",
				Value: 20,
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration file",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive conversion.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch interactive TUI for link conversion",
		Arguments: inputArg(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name for playlists created from the results",
			},
		},
		Action: r.TUI,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		linksCommand, appleCommand, convertCommand, playlistCommand, spotifyCommand,
		serveCommand, historyCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// command returns the root command.
func (r *Runner) command() *cli.Command {
	return &cli.Command{
		Name:     "songlinks",
		Usage:    "Find music links in chats and match them on Spotify",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}
