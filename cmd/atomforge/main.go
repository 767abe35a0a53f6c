// Copyright 2025 Atomforge Authors
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/atomforge/atomforge"
	"github.com/atomforge/atomforge/ai"
	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/notify"
)

func main() {
	app := &cli.App{
		Name:  "atomforge",
		Usage: "Autonomous knowledge ingestion pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the ingestion service until interrupted",
				Action: serveCommand,
				Flags: []cli.Flag{
					dataFlag(),
					&cli.StringFlag{
						Name:  "ai-host",
						Usage: "OpenAI-compatible service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "webhook-url",
						Usage: "Chat webhook for outbound notifications",
					},
					&cli.StringFlag{
						Name:  "notify-mode",
						Usage: "Notification mode (immediate, digest)",
						Value: "digest",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent pipeline sessions",
						Value: 10,
					},
				},
			},
			{
				Name:      "enqueue",
				Usage:     "Submit a source URL or text for ingestion",
				ArgsUsage: "<source>",
				Action:    enqueueCommand,
				Flags: []cli.Flag{
					dataFlag(),
					&cli.Float64Flag{
						Name:    "priority",
						Aliases: []string{"p"},
						Usage:   "Priority hint (0-100)",
						Value:   50,
					},
					&cli.StringFlag{
						Name:  "seed-file",
						Usage: "File with one source per line, instead of a single argument",
					},
				},
			},
			{
				Name:      "gap",
				Usage:     "Record a knowledge gap signal",
				ArgsUsage: "<topic-key>",
				Action:    gapCommand,
				Flags: []cli.Flag{
					dataFlag(),
					&cli.Float64Flag{
						Name:    "confidence",
						Aliases: []string{"c"},
						Usage:   "Signal confidence (0-1)",
						Value:   0.5,
					},
				},
			},
			{
				Name:   "reconcile",
				Usage:  "Replay the failover log into healthy storage",
				Action: reconcileCommand,
				Flags:  []cli.Flag{dataFlag()},
			},
			{
				Name:   "stats",
				Usage:  "Print aggregated session metrics",
				Action: statsCommand,
				Flags: []cli.Flag{
					dataFlag(),
					&cli.StringFlag{
						Name:    "granularity",
						Aliases: []string{"g"},
						Usage:   "Bucket granularity (realtime, hourly, daily)",
						Value:   "hourly",
					},
					&cli.DurationFlag{
						Name:  "since",
						Usage: "How far back to report",
						Value: 24 * time.Hour,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dataFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "data",
		Aliases: []string{"d"},
		Usage:   "Path to the data directory",
		Value:   "./data",
	}
}

func openService(c *cli.Context) (*atomforge.Service, error) {
	config := atomforge.DefaultConfig(c.String("data"))

	if host := c.String("ai-host"); host != "" {
		config.AI = ai.NewConfig(ai.WithHost(host))
	}
	if url := c.String("webhook-url"); url != "" {
		config.WebhookURL = url
	}
	if mode := c.String("notify-mode"); mode == "immediate" {
		config.Dispatcher.Mode = notify.ModeImmediate
	}
	if workers := c.Int("workers"); workers > 0 {
		config.Scheduler.Workers = workers
	}

	return atomforge.New(config)
}

func serveCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to assemble service: %w", err)
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service.Start()
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func enqueueCommand(c *cli.Context) error {
	sources, err := enqueueSources(c)
	if err != nil {
		return err
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	for _, source := range sources {
		ack, err := service.Enqueue(context.Background(), source, c.Float64("priority"))
		if err != nil {
			return fmt.Errorf("enqueue failed: %w", err)
		}

		if ack.Merged {
			fmt.Printf("merged into existing entry %d, rank %d\n", uint64(ack.SourceID), ack.Rank)
			continue
		}
		fmt.Printf("accepted as entry %d, rank %d\n", uint64(ack.SourceID), ack.Rank)
	}
	return nil
}

// enqueueSources resolves either the single positional source or the lines of
// a seed file. Blank lines and #-comments in seed files are skipped.
func enqueueSources(c *cli.Context) ([]string, error) {
	if path := c.String("seed-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		var sources []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			sources = append(sources, line)
		}
		if len(sources) == 0 {
			return nil, fmt.Errorf("seed file %s contains no sources", path)
		}
		return sources, nil
	}

	source := c.Args().First()
	if source == "" {
		return nil, fmt.Errorf("source URL or text is required")
	}
	return []string{source}, nil
}

func gapCommand(c *cli.Context) error {
	topicKey := c.Args().First()
	if topicKey == "" {
		return fmt.Errorf("topic key is required (vendor:category)")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	gap, err := service.RecordGap(context.Background(), topicKey, c.Float64("confidence"))
	if err != nil {
		return fmt.Errorf("gap signal failed: %w", err)
	}

	fmt.Printf("topic %s: %d requests, priority %.0f\n",
		gap.TopicKey, gap.RequestCount, gap.PriorityScore)
	return nil
}

func reconcileCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	replayed, err := service.Reconcile(context.Background())
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	fmt.Printf("replayed %d records\n", replayed)
	return nil
}

func statsCommand(c *cli.Context) error {
	gran, err := parseGranularity(c.String("granularity"))
	if err != nil {
		return err
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	now := time.Now().UTC()
	records, err := service.Metrics().RangeMetrics(context.Background(),
		gran, now.Add(-c.Duration("since")), now)
	if err != nil {
		return fmt.Errorf("stats query failed: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no data in range")
		return nil
	}

	for _, r := range records {
		avg := time.Duration(0)
		if r.Sessions > 0 {
			avg = time.Duration(r.TotalDurationMs/int64(r.Sessions)) * time.Millisecond
		}
		fmt.Printf("%s  sessions=%d (ok=%d partial=%d failed=%d)  atoms=%d/%d  avg=%s\n",
			r.Bucket.Format(time.RFC3339), r.Sessions,
			r.Succeeded, r.Partial, r.Failed,
			r.AtomsCreated, r.AtomsFailed, avg)
	}
	return nil
}

func parseGranularity(s string) (core.Granularity, error) {
	switch strings.ToLower(s) {
	case "realtime":
		return core.GranularityRealtime, nil
	case "hourly":
		return core.GranularityHourly, nil
	case "daily":
		return core.GranularityDaily, nil
	}
	return 0, fmt.Errorf("unknown granularity %q", s)
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
		return fmt.Errorf("invalid log level: %s", levelStr)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}
