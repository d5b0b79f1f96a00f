package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/five82/pxbrowse/internal/app"
)

// Version is set via ldflags.
var Version = "dev"

func newApp() *cli.App {
	return &cli.App{
		Name:    "pxbrowse",
		Usage:   "browse px datasets in the terminal",
		Version: Version,
		Flags:   globalFlags(),
		Action: func(c *cli.Context) error {
			return app.Run(c.Context, options(c))
		},
		Commands: []*cli.Command{
			sourcesCommand(),
			tablesCommand(),
			snapshotCommand(),
			logsCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (.toml, .yaml or .yml)",
			EnvVars: []string{"PXBROWSE_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "prefs",
			Usage: "preferences file (default ~/.config/pxbrowse/prefs.toml)",
		},
		&cli.StringFlag{
			Name:    "snapshot",
			Aliases: []string{"n"},
			Usage:   "snapshot name (default from config)",
		},
	}
}

func options(c *cli.Context) app.Options {
	return app.Options{
		ConfigPath: c.String("config"),
		PrefsPath:  c.String("prefs"),
		Snapshot:   c.String("snapshot"),
	}
}

func sourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "list configured data sources",
		Action: func(c *cli.Context) error {
			return app.ListSources(options(c), c.App.Writer)
		},
	}
}

func tablesCommand() *cli.Command {
	return &cli.Command{
		Name:      "tables",
		Usage:     "fetch a source and list its tables",
		ArgsUsage: "<source>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("tables needs exactly one source name")
			}
			return app.ListTables(c.Context, options(c), c.Args().First(), c.App.Writer)
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "inspect or manage the saved snapshot",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the saved snapshot as JSON",
				Action: func(c *cli.Context) error {
					return app.ShowSnapshot(c.Context, options(c), c.App.Writer)
				},
			},
			{
				Name:  "clear",
				Usage: "delete the saved snapshot",
				Action: func(c *cli.Context) error {
					if err := app.ClearSnapshot(c.Context, options(c)); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "cleared")
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "write the saved snapshot to a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "output file (default <export dir>/<snapshot>.json)",
					},
				},
				Action: func(c *cli.Context) error {
					path, err := app.ExportSnapshot(c.Context, options(c), c.String("out"))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, path)
					return nil
				},
			},
			{
				Name:      "import",
				Usage:     "save an exported JSON file as the snapshot",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("snapshot import: expected exactly one file")
					}
					name, err := app.ImportSnapshot(c.Context, options(c), c.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "imported %q\n", name)
					return nil
				},
			},
		},
	}
}

func logsCommand() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "print the tail of the log file",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "lines",
				Value: 50,
				Usage: "number of records to print",
			},
			&cli.StringFlag{
				Name:  "level",
				Value: "info",
				Usage: "minimum level: debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "keep printing new records until interrupted",
			},
		},
		Action: func(c *cli.Context) error {
			return app.ShowLogs(c.Context, options(c), c.Int("lines"), c.String("level"), c.Bool("follow"), c.App.Writer)
		},
	}
}
