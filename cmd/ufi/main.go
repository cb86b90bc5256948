package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/ufi/internal/config"
	"github.com/standardbeagle/ufi/internal/diag"
	"github.com/standardbeagle/ufi/internal/runner"
	"github.com/standardbeagle/ufi/internal/scan"
	"github.com/standardbeagle/ufi/internal/version"
	"github.com/standardbeagle/ufi/pkg/pathutil"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Println(version.FullInfo())
	}

	app := &cli.App{
		Name:                   "ufi",
		Usage:                  "Incremental formatting with an up-to-date file index",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.DefaultConfigName,
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include '**/*.go')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/testdata/**')",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Formatting worker count (0 = number of CPUs)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show informational diagnostics",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress all diagnostics",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "run",
				Aliases: []string{"fmt"},
				Usage:   "Format changed files and update the index",
				Action:  runCommand,
			},
			{
				Name:   "check",
				Usage:  "Report files that would be reformatted, without writing anything",
				Action: checkCommand,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List candidate files after include/exclude filtering",
				Action:  listCommand,
			},
			{
				Name:    "status",
				Aliases: []string{"st"},
				Usage:   "Show index snapshot location, fingerprint and entry count",
				Action:  statusCommand,
			},
			{
				Name:   "clean",
				Usage:  "Delete the index snapshot file",
				Action: cleanCommand,
			},
			{
				Name:   "watch",
				Usage:  "Watch the project and format changed files incrementally",
				Action: watchCommand,
			},
			{
				Name:  "config",
				Usage: "Configuration management commands",
				Subcommands: []*cli.Command{
					{
						Name:    "init",
						Aliases: []string{"i"},
						Usage:   "Write a default config file",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing config file",
							},
						},
						Action: configInitCommand,
					},
					{
						Name:    "show",
						Aliases: []string{"s"},
						Usage:   "Show the effective configuration",
						Action:  configShowCommand,
					},
					{
						Name:    "validate",
						Aliases: []string{"v"},
						Usage:   "Validate the config file",
						Action:  configValidateCommand,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigWithOverrides loads configuration and applies CLI flag
// overrides on top of the file values.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	// If root is specified and the config path is the default, look for
	// the config inside the root directory.
	if rootFlag := c.String("root"); rootFlag != "" && configPath == config.DefaultConfigName {
		configPath = filepath.Join(rootFlag, config.DefaultConfigName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if include := c.StringSlice("include"); len(include) > 0 {
		cfg.Include = include
	}
	if exclude := c.StringSlice("exclude"); len(exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, exclude...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if c.IsSet("workers") {
		cfg.Run.Workers = c.Int("workers")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSink(c *cli.Context) diag.Sink {
	if c.Bool("quiet") {
		return diag.Discard
	}
	return diag.NewLogger(os.Stderr, c.Bool("verbose"))
}

func runCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	res, err := runner.New(cfg, newSink(c)).Run(c.Context, runner.ModeFormat)
	if err != nil {
		return err
	}
	fmt.Printf("%d files scanned, %d up to date, %d formatted\n",
		res.Scanned, res.Skipped, res.Formatted)
	return nil
}

func checkCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	res, err := runner.New(cfg, newSink(c)).Run(c.Context, runner.ModeCheck)
	if err != nil {
		return err
	}
	for _, file := range pathutil.ToRelativeAll(res.OutOfDate, cfg.Project.Root) {
		fmt.Println(file)
	}
	if len(res.OutOfDate) > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files need formatting", len(res.OutOfDate), res.Scanned), 1)
	}
	fmt.Printf("%d files scanned, all up to date\n", res.Scanned)
	return nil
}

func listCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	files, err := scan.New(cfg).Files(c.Context)
	if err != nil {
		return err
	}
	for _, file := range pathutil.ToRelativeAll(files, cfg.Project.Root) {
		fmt.Println(file)
	}
	fmt.Printf("%d files\n", len(files))
	return nil
}

func cleanCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	indexFile := cfg.IndexFile()
	if err := os.Remove(indexFile); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No index at %s\n", indexFile)
			return nil
		}
		return fmt.Errorf("failed to remove index %s: %w", indexFile, err)
	}
	fmt.Printf("Removed %s\n", indexFile)
	return nil
}
