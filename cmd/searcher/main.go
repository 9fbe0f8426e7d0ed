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
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/newsdesk"
	"github.com/poiesic/newsdesk/config"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/retrieval"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	dataDir    = flag.String("db", "", "BadgerDB directory (overrides config)")
	windowDays = flag.Int("window-days", 0, "recency window in days (0 uses config)")
	topK       = flag.Int("k", 5, "number of hits")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// traceMonitor prints each retrieval step with its elapsed time.
type traceMonitor struct {
	out   io.Writer
	start time.Time
}

var _ retrieval.Monitor = (*traceMonitor)(nil)

func (m *traceMonitor) Start(query string, cutoff int64) {
	m.start = time.Now()
	fmt.Fprintf(m.out, "query %q, documents newer than %s\n", query, time.Unix(cutoff, 0).UTC().Format(core.DateLayout))
}

func (m *traceMonitor) AfterEmbedding(dimensions int) {
	fmt.Fprintf(m.out, "embedded query: %d dimensions (%s)\n", dimensions, time.Since(m.start).Round(time.Millisecond))
}

func (m *traceMonitor) AfterSearch(results []*core.SearchResult) {
	fmt.Fprintf(m.out, "scored store: %d hits (%s)\n", len(results), time.Since(m.start).Round(time.Millisecond))
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	ctx := context.Background()
	nd, err := newsdesk.Open(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer nd.Close()

	query := "interest rates"
	if flag.NArg() > 0 {
		query = strings.Join(flag.Args(), " ")
	}

	results, err := nd.SearchWithMonitor(ctx, query, *windowDays, *topK, &traceMonitor{out: os.Stdout})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%d)[%0.3f] %s %s\n", i, hit.Document.Text, hit.Document.Id, hit.Score, hit.Document.DateString, hit.Document.Source)
	}
	fmt.Println()
	fmt.Println(retrieval.FormatEvidence(results))
}
