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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/newsdesk"
	"github.com/poiesic/newsdesk/config"
	"github.com/poiesic/newsdesk/connectors"
	"github.com/poiesic/newsdesk/reembed"
	"github.com/poiesic/newsdesk/server"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "newsdesk",
		Usage:  "Research assistant over ingested news, events, feeds and web search",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"NEWSDESK_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"db"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "AI provider: openai or gemini (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Run the research pipeline and print the report",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "connector",
						Usage: "Search stage connector: tavily, newsapi or gdelt (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Also print the plan and search summary",
					},
				},
			},
			{
				Name:      "news",
				Usage:     "Load NewsAPI articles from the last 29 days",
				ArgsUsage: "<query>",
				Action:    ingestCommand(connectors.NewsAPIName),
			},
			{
				Name:      "gdelt",
				Usage:     "Load GDELT global event articles",
				ArgsUsage: "<query>",
				Action:    ingestCommand(connectors.GDELTName),
			},
			{
				Name:      "web",
				Usage:     "Load Tavily web search results",
				ArgsUsage: "<query>",
				Action:    ingestCommand(connectors.WebSearchName),
			},
			{
				Name:      "feed",
				Usage:     "Load the newest entries of RSS/Atom/JSON feeds (configured feeds if none given)",
				ArgsUsage: "[url...]",
				Action:    feedCommand,
			},
			{
				Name:      "quote",
				Usage:     "Print the latest market data for tickers",
				ArgsUsage: "<ticker...>",
				Action:    quoteCommand,
			},
			{
				Name:      "retrieve",
				Usage:     "Print the evidence block the report writer would see",
				ArgsUsage: "<question>",
				Action:    retrieveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "window-days",
						Usage: "Only consider documents newer than this many days (0 uses config)",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of documents to return (0 uses config)",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print store statistics",
				Action: statsCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed every stored document with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides config)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each embedding call",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
		},
	}
}

// loadConfig reads the config file and environment, then applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("data-dir"); db != "" {
		cfg.Storage.DataDir = db
	}
	if p := c.String("provider"); p != "" {
		cfg.UseProvider(p, os.LookupEnv)
	}
	return cfg, cfg.Validate()
}

func openNewsdesk(c *cli.Context, mutate func(*config.Config)) (*newsdesk.Newsdesk, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}
	return newsdesk.Open(c.Context, cfg)
}

func queryArg(c *cli.Context) (string, error) {
	q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if q == "" {
		return "", fmt.Errorf("%s: a %s argument is required", c.Command.Name, strings.Trim(c.Command.ArgsUsage, "<>[]."))
	}
	return q, nil
}

func askCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	nd, err := openNewsdesk(c, func(cfg *config.Config) {
		if conn := c.String("connector"); conn != "" {
			cfg.Connectors.SearchConnector = conn
		}
	})
	if err != nil {
		return err
	}
	defer nd.Close()

	state := nd.Run(c.Context, query)
	if c.Bool("verbose") && state.Plan != nil {
		fmt.Fprintf(c.App.Writer, "Run: %s\nSearch queries: %s\nTickers: %s\nSearch: %s\n\n",
			state.RunID,
			strings.Join(state.Plan.SearchQueries, "; "),
			strings.Join(state.Plan.StockTickers, ", "),
			state.SearchSummary)
	}
	fmt.Fprintln(c.App.Writer, state.FinalReport)
	return nil
}

func ingestCommand(connector string) cli.ActionFunc {
	return func(c *cli.Context) error {
		query, err := queryArg(c)
		if err != nil {
			return err
		}
		nd, err := openNewsdesk(c, nil)
		if err != nil {
			return err
		}
		defer nd.Close()

		res, err := nd.Ingest(c.Context, connector, query)
		if err != nil {
			return err
		}
		return printResult(c, res)
	}
}

func feedCommand(c *cli.Context) error {
	nd, err := openNewsdesk(c, nil)
	if err != nil {
		return err
	}
	defer nd.Close()

	urls := c.Args().Slice()
	if len(urls) == 0 && len(nd.Config().Connectors.Feeds) == 0 {
		return fmt.Errorf("feed: no feed URLs given and none configured")
	}

	var failed int
	for _, res := range nd.ImportFeeds(c.Context, urls...) {
		if printResult(c, res) != nil {
			failed++
		}
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d feed(s) failed", failed), 1)
	}
	return nil
}

// printResult prints the summary and turns hard failures into a non-zero exit.
func printResult(c *cli.Context, res connectors.Result) error {
	fmt.Fprintln(c.App.Writer, res.Summary())
	switch res.Kind {
	case connectors.KindOK, connectors.KindEmpty:
		return nil
	default:
		return cli.Exit("", 1)
	}
}

func quoteCommand(c *cli.Context) error {
	tickers := c.Args().Slice()
	if len(tickers) == 0 {
		return fmt.Errorf("quote: at least one ticker is required")
	}
	nd, err := openNewsdesk(c, nil)
	if err != nil {
		return err
	}
	defer nd.Close()

	for i, t := range tickers {
		if i > 0 {
			fmt.Fprintln(c.App.Writer)
		}
		fmt.Fprintln(c.App.Writer, nd.Quote(c.Context, t).Summary())
	}
	return nil
}

func retrieveCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	nd, err := openNewsdesk(c, nil)
	if err != nil {
		return err
	}
	defer nd.Close()

	evidence, err := nd.Retrieve(c.Context, query, c.Int("window-days"), c.Int("k"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, evidence)
	return nil
}

func statsCommand(c *cli.Context) error {
	nd, err := openNewsdesk(c, nil)
	if err != nil {
		return err
	}
	defer nd.Close()

	n, err := nd.Count(c.Context)
	if err != nil {
		return err
	}
	cfg := nd.Config()
	fmt.Fprintf(c.App.Writer, "Store: %s\nDocuments: %d\nEmbedding model: %s (%s)\n",
		cfg.Storage.DataDir, n, cfg.AI.EmbeddingModel, cfg.AI.Provider)
	return nil
}

func reembedCommand(c *cli.Context) error {
	nd, err := openNewsdesk(c, func(cfg *config.Config) {
		if m := c.String("embedding-model"); m != "" {
			cfg.AI.EmbeddingModel = m
		}
	})
	if err != nil {
		return err
	}
	defer nd.Close()

	r, err := nd.Reembedder(
		reembed.WithProgress(c.App.ErrWriter),
		reembed.WithConfig(reembed.Config{
			BatchSize:      c.Int("batch-size"),
			ReportInterval: c.Int("report-interval"),
			Backoff: reembed.Backoff{
				Attempts:  c.Int("max-retries"),
				BaseDelay: c.Duration("retry-delay"),
				MaxDelay:  time.Minute,
			},
		}),
	)
	if err != nil {
		return err
	}
	stats, err := r.Run(c.Context)
	if err != nil {
		return fmt.Errorf("re-embedding failed after %d documents (rerun to resume): %w", stats.Processed, err)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	nd, err := openNewsdesk(c, func(cfg *config.Config) {
		if addr := c.String("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
	})
	if err != nil {
		return err
	}
	defer nd.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(nd).ListenAndServe(ctx, nd.Config().HTTP)
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

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}
