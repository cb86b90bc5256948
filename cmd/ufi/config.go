package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/ufi/internal/config"
)

func configInitCommand(c *cli.Context) error {
	output := c.String("config")

	if !c.Bool("force") {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", output)
		}
	}

	content, err := config.Render(config.Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", output, err)
	}

	fmt.Printf("Config file created: %s\n", output)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	content, err := config.Render(cfg)
	if err != nil {
		return err
	}
	fmt.Print(content)
	return nil
}

func configValidateCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	fmt.Printf("Config is valid\n")
	fmt.Printf("Project root: %s\n", cfg.Project.Root)
	fmt.Printf("Index file:   %s\n", cfg.IndexFile())
	fmt.Printf("Patterns:     %d include, %d exclude\n", len(cfg.Include), len(cfg.Exclude))
	return nil
}
