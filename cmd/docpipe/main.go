// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docpipe"
	"github.com/poiesic/docpipe/core"
	"github.com/poiesic/docpipe/pipeline"
	"github.com/poiesic/docpipe/versioning"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "docpipe",
		Usage:  "Document ingestion pipeline with chunking, validation, and versioning",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest one or more documents",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Chunking strategy (fixed_size, by_paragraph, by_sentence)",
						Value: string(core.StrategyFixedSize),
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in characters",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Chunk overlap in characters",
						Value: 200,
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Abort ingestion when validation fails",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "User-supplied document category",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "User-supplied tag (repeatable)",
					},
				},
			},
			{
				Name:      "versions",
				Usage:     "List stored versions of a document",
				ArgsUsage: "FILENAME",
				Action:    versionsCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:      "search",
				Usage:     "Search stored documents by filename and metadata",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show version store and tracking statistics",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to the document store directory",
		Required: true,
	}
}

func openStore(c *cli.Context) (*docpipe.Store, error) {
	return docpipe.Open(c.String("db"))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := pipeline.DefaultConfig()
	cfg.Chunking.Strategy = core.Strategy(c.String("strategy"))
	cfg.Chunking.TargetSize = c.Int("chunk-size")
	cfg.Chunking.Overlap = c.Int("overlap")
	cfg.StopOnValidationError = c.Bool("strict")

	pl, err := store.NewPipeline(cfg)
	if err != nil {
		return err
	}
	defer pl.Release()

	var userMetadata map[string]any
	if c.String("category") != "" || len(c.StringSlice("tag")) > 0 {
		userMetadata = map[string]any{}
		if category := c.String("category"); category != "" {
			userMetadata["category"] = category
		}
		if tags := c.StringSlice("tag"); len(tags) > 0 {
			userMetadata["tags"] = tags
		}
	}

	if c.NArg() == 1 {
		result := pl.IngestFile(c.Context, c.Args().First(), userMetadata)
		return printResult(result)
	}

	batch := pl.ProcessBatch(c.Context, c.Args().Slice(), userMetadata)
	fmt.Printf("batch %s: %d succeeded, %d failed\n",
		batch.BatchID, batch.Succeeded(), batch.Failed())
	for i, result := range batch.Results {
		fmt.Printf("\n[%d] %s\n", i+1, c.Args().Get(i))
		if err := printResult(result); err != nil {
			return err
		}
	}
	return nil
}

func printResult(result *pipeline.Result) error {
	data, err := json.MarshalIndent(result.ToMap(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	if !result.Success {
		return cli.Exit("", 1)
	}
	return nil
}

func versionsCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one filename is required")
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	documentID := versioning.DocumentID(c.Args().First())
	history, err := store.VersionManager().History(c.Context, documentID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Printf("no versions found for %s\n", documentID)
		return nil
	}

	for _, entry := range history {
		fmt.Printf("%s  %-8s  %-10s  %8d bytes  %s\n",
			entry.VersionID,
			entry.VersionNumber,
			entry.Status,
			entry.FileSize,
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query is required")
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	pl, err := store.NewPipeline(pipeline.DefaultConfig())
	if err != nil {
		return err
	}
	defer pl.Release()

	hits, err := pl.SearchDocuments(c.Context, c.Args().First(), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("no matches")
		return nil
	}

	for _, hit := range hits {
		fmt.Printf("%.1f  %s  %s  %s\n",
			hit.Score,
			hit.VersionID,
			hit.Filename,
			hit.CreatedAt.Format("2006-01-02"),
		)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	versionStats, err := store.VersionManager().GetStatistics(c.Context)
	if err != nil {
		return err
	}
	trackingStats := store.ProgressTracker().GetStatistics()

	out := map[string]any{
		"versions": versionStats,
		"tracking": trackingStats,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
