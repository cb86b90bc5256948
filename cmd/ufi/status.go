package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/ufi/internal/runner"
)

// statusCommand inspects the raw snapshot file rather than going
// through the index load path, so it can show a stale or corrupt
// snapshot instead of silently falling back to empty.
func statusCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	expected := runner.New(cfg, newSink(c)).Fingerprint()

	fmt.Printf("Project root:         %s\n", cfg.Project.Root)
	fmt.Printf("Index file:           %s\n", cfg.IndexFile())
	fmt.Printf("Expected fingerprint: %s\n", expected)

	f, err := os.Open(cfg.IndexFile())
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("Snapshot:             absent (next run formats everything)")
			return nil
		}
		return fmt.Errorf("failed to read index %s: %w", cfg.IndexFile(), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		fmt.Println("Snapshot:             empty")
		return nil
	}
	stored := scanner.Text()

	entries := 0
	for scanner.Scan() {
		entries++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read index %s: %w", cfg.IndexFile(), err)
	}

	fmt.Printf("Stored fingerprint:   %s\n", stored)
	fmt.Printf("Entries:              %d\n", entries)
	if stored != expected.String() {
		fmt.Println("Snapshot:             stale (fingerprint mismatch, next run formats everything)")
	} else {
		fmt.Println("Snapshot:             current")
	}
	return nil
}
