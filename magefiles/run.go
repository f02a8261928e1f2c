//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// paperwatch runs the built binary with the given arguments, building
// it first if needed.
func paperwatch(args ...string) error {
	bin := filepath.Join(binDir, binName)
	if _, err := os.Stat(bin); err != nil {
		if err := Build(); err != nil {
			return err
		}
	}
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Run executes one live collection pass.
// See prd006-pipeline for full requirements.
func Run() error {
	return paperwatch("run")
}

// DryRun executes one pass that classifies and summarizes but writes nothing.
// See prd006-pipeline for full requirements.
func DryRun() error {
	return paperwatch("run", "--dry-run")
}

// Check validates the sources file without running the pipeline.
func Check() error {
	return paperwatch("sources", "check")
}

// History lists recent runs from the local archive.
func History() error {
	fmt.Println("Recent runs:")
	return paperwatch("history")
}
