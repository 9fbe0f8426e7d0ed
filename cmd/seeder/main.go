package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/newsdesk"
	"github.com/poiesic/newsdesk/config"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
)

// headlines seed a fresh store when no source file is given. Dates are
// relative to today so they fall inside the default retrieval window.
var headlines = []struct {
	text    string
	daysAgo int
	source  core.Source
}{
	{"Central bank holds rates steady, signals two cuts before year end", 1, core.SourceNews},
	{"Chipmaker shares jump after record data center revenue", 2, core.SourceNews},
	{"Oil prices slide as OPEC+ agrees to raise output in the autumn", 3, core.SourceNews},
	{"Regulators open antitrust probe into cloud software bundling", 4, core.SourceNews},
	{"Electric vehicle deliveries miss estimates amid price war", 5, core.SourceNews},
	{"Treasury yields climb after stronger than expected jobs report", 6, core.SourceNews},
	{"Retailer cuts full year guidance on weak consumer spending", 7, core.SourceNews},
	{"Airline stocks rally as jet fuel costs ease", 8, core.SourceNews},
	{"Semiconductor export controls tightened for advanced AI chips", 9, core.SourceNews},
	{"Bank earnings beat forecasts on trading and net interest income", 10, core.SourceNews},
	{"Drought cuts wheat harvest forecast across the southern plains", 11, core.SourceGlobalEvents},
	{"Port strike halts container traffic on the east coast", 12, core.SourceGlobalEvents},
	{"Election results trigger currency volatility in emerging markets", 13, core.SourceGlobalEvents},
	{"Earthquake disrupts semiconductor fabs in northern Taiwan", 14, core.SourceGlobalEvents},
	{"Ceasefire talks resume as shipping lanes reopen in the Red Sea", 15, core.SourceGlobalEvents},
	{"Copper hits two year high on supply disruptions in Chile", 16, core.SourceGlobalEvents},
	{"Pharmaceutical giant wins approval for weight loss pill", 17, core.SourceFeed},
	{"Streaming service raises prices and cracks down on password sharing", 18, core.SourceFeed},
	{"Startup raises $2 billion to build small modular nuclear reactors", 19, core.SourceFeed},
	{"Smartphone maker unveils on-device AI assistant", 20, core.SourceFeed},
	{"Housing starts fall to lowest level since the pandemic", 21, core.SourceWebSearch},
	{"Consumer confidence rebounds as inflation cools", 22, core.SourceWebSearch},
	{"Gold reaches record as investors seek safe havens", 23, core.SourceWebSearch},
	{"Automaker recalls 400,000 vehicles over airbag defect", 24, core.SourceWebSearch},
	{"Software company announces $10 billion buyback", 25, core.SourceWebSearch},
}

// seedLine is one JSON line of a seed file. Plain text lines are accepted too.
type seedLine struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Date   string `json:"date"`
	Source string `json:"source"`
}

var (
	seedFileName = flag.String("src", "", "file of seed data (JSON lines of {text,url,date,source} or plain text)")
	configPath   = flag.String("config", "", "path to a YAML config file")
	dataDir      = flag.String("db", "", "BadgerDB directory (overrides config)")
	batchSize    = flag.Int("batch", 5, "documents per batch")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// itemsFromLines parses each non-blank line into an item.
func itemsFromLines(lines iter.Seq[string]) iter.Seq[ingestion.Item] {
	return func(yield func(ingestion.Item) bool) {
		for line := range lines {
			item, ok := parseLine(line)
			if !ok {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

func parseLine(line string) (ingestion.Item, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ingestion.Item{}, false
	}
	if !strings.HasPrefix(line, "{") {
		return ingestion.Item{Text: line, Source: core.SourceNews}, true
	}

	var l seedLine
	if err := json.Unmarshal([]byte(line), &l); err != nil {
		slog.Warn("skipping malformed seed line", "err", err)
		return ingestion.Item{}, false
	}
	source := core.Source(l.Source)
	if source == "" {
		source = core.SourceNews
	}
	return ingestion.Item{
		Text:   l.Text,
		URL:    l.URL,
		Date:   core.DateFromString(l.Date),
		Source: source,
	}, true
}

// sampleItems returns an iterator over the built-in headlines.
func sampleItems(now time.Time) iter.Seq[ingestion.Item] {
	return func(yield func(ingestion.Item) bool) {
		for i, h := range headlines {
			item := ingestion.Item{
				Text:   h.text,
				URL:    fmt.Sprintf("https://example.com/seed/%d", i+1),
				Date:   core.DateFromTime(now.AddDate(0, 0, -h.daysAgo)),
				Source: h.source,
			}
			if !yield(item) {
				return
			}
		}
	}
}

type storer interface {
	Store(ctx context.Context, items ...ingestion.Item) ([]*core.Document, error)
}

// ingestBatched reads from a source iterator and stores items in batches.
func ingestBatched(ctx context.Context, store storer, source iter.Seq[ingestion.Item], batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 1
	}
	batch := make([]ingestion.Item, 0, batchSize)
	total := 0

	flush := func() error {
		docs, err := store.Store(ctx, batch...)
		if err != nil {
			return err
		}
		total += len(docs)
		batch = batch[:0]
		return nil
	}

	for item := range source {
		batch = append(batch, item)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	// Process any remaining items
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return total, err
		}
	}

	return total, nil
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

	// Determine source of seed data
	var source iter.Seq[ingestion.Item]
	if *seedFileName != "" {
		lines, err := linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
		source = itemsFromLines(lines)
	} else {
		source = sampleItems(time.Now())
	}

	n, err := ingestBatched(ctx, nd, source, *batchSize)
	slog.Info("seeding finished", "documents", n, "dir", cfg.Storage.DataDir)
	if err != nil {
		panic(err)
	}
}
