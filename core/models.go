package core

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Documents get IDs from a database sequence; cache entries use content hashes.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Source identifies the connector a document was ingested from.
type Source string

const (
	SourceNews         Source = "news"
	SourceGlobalEvents Source = "global-events"
	SourceFeed         Source = "feed"
	SourceWebSearch    Source = "web-search"
)

// Sources lists every source a stored document may carry.
var Sources = []Source{SourceNews, SourceGlobalEvents, SourceFeed, SourceWebSearch}

// Document is the unit of ingestion.
// Documents are append-only: re-ingesting the same URL creates a new record.
type Document struct {
	Id         ID        `json:"id"`
	Text       string    `json:"text"`
	URL        string    `json:"url"`
	DateString string    `json:"date"`      // Canonical YYYY-MM-DD
	Timestamp  int64     `json:"timestamp"` // Unix seconds, derived from the same date input as DateString
	Source     Source    `json:"source"`
	Vector     []float32 `json:"vector,omitempty"`
	InsertedAt time.Time `json:"inserted_at"`
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document *Document
	Score    float32
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// Checkpoint records how far a long-running batch job has progressed.
type Checkpoint struct {
	Name      string    `json:"name"`
	LastID    ID        `json:"last_id"`
	Processed int       `json:"processed"`
	UpdatedAt time.Time `json:"updated_at"`
}
