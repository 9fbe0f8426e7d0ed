package retrieval

import "github.com/poiesic/newsdesk/core"

// Monitor provides hooks to observe a retrieval.
type Monitor interface {
	Start(query string, cutoff int64)
	AfterEmbedding(dimensions int)
	AfterSearch(results []*core.SearchResult)
}

type noopMonitor struct{}

var _ Monitor = noopMonitor{}

func (noopMonitor) Start(string, int64)               {}
func (noopMonitor) AfterEmbedding(int)                {}
func (noopMonitor) AfterSearch([]*core.SearchResult) {}
