// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperwatch/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect and validate the sources file",
	Long: `Sources manages the watch list: the arXiv categories and keywords to
query and the RSS feeds to poll. The list lives in a YAML file the
researcher edits by hand; the pipeline re-reads it on every run.`,
}

// --- list subcommand ---

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured sources",
	RunE:  runSourcesList,
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	f, err := source.LoadFile(path)
	if err != nil {
		return err
	}

	if len(f.Arxiv.Categories) > 0 || len(f.Arxiv.Keywords) > 0 {
		fmt.Println("arxiv:")
		if len(f.Arxiv.Categories) > 0 {
			fmt.Printf("  categories: %s\n", strings.Join(f.Arxiv.Categories, ", "))
		}
		if len(f.Arxiv.Keywords) > 0 {
			fmt.Printf("  keywords:   %s\n", strings.Join(f.Arxiv.Keywords, ", "))
		}
	}
	if len(f.Feeds) > 0 {
		fmt.Println("feeds:")
		for _, feed := range f.Feeds {
			name := feed.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("  %-24s %s\n", name, feed.URL)
		}
	}
	return nil
}

// --- check subcommand ---

var sourcesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the sources file",
	Long: `Check parses and validates the sources file without running the
pipeline: at least one source must be configured and every feed needs a
usable http(s) URL.`,
	RunE: runSourcesCheck,
}

func runSourcesCheck(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	f, err := source.LoadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s OK: %d categories, %d keywords, %d feeds\n",
		path, len(f.Arxiv.Categories), len(f.Arxiv.Keywords), len(f.Feeds))
	return nil
}

func init() {
	sourcesCmd.PersistentFlags().String("file", "sources.yaml", "sources file to read")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesCheckCmd)
	rootCmd.AddCommand(sourcesCmd)
}
