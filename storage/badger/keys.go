package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/newsdesk/core"
)

// Key prefixes for different data types.
// No prefix is a prefix of another, so prefix iteration never crosses types.
const (
	documentPrefix     = "doc:"
	documentDatePrefix = "docts:"
	documentIDSeq      = "docseq"
	embeddingPrefix    = "emb:"
	checkpointPrefix   = "chkpt:"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s%d", documentPrefix, id))
}

// makeDocumentDateKey generates a composite key for the timestamp index.
// Format: prefix + timestamp + id
func makeDocumentDateKey(timestamp int64, id core.ID) []byte {
	prefixBytes := []byte(documentDatePrefix)
	buf := make([]byte, len(prefixBytes)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(clampTimestamp(timestamp)))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentDateKey generates a partial key for range scans.
// Format: prefix + timestamp
func makePartialDocumentDateKey(timestamp int64) []byte {
	prefixBytes := []byte(documentDatePrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(clampTimestamp(timestamp)))
	return buf
}

// makeEmbeddingKey generates a key for a cached embedding.
func makeEmbeddingKey(key core.ID) []byte {
	prefixBytes := []byte(embeddingPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(key))
	return buf
}

// makeCheckpointKey generates a key for a named checkpoint.
func makeCheckpointKey(name string) []byte {
	return []byte(checkpointPrefix + name)
}

// Negative timestamps would wrap to the top of the index.
func clampTimestamp(ts int64) int64 {
	if ts < 0 {
		return 0
	}
	return ts
}
