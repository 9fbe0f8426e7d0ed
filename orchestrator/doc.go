// Package orchestrator drives one research run through its fixed stages.
//
// A run moves strictly Plan → Search → Synthesize → Done. Each stage owns
// exactly one field of core.PipelineState and degrades to a descriptive
// placeholder when its collaborator fails, so every run reaches Done with a
// non-empty final report.
//
// The Search stage executes only the first planned query, through a single
// connector. The Synthesize stage always queries the document store afresh
// with the original question; it never reads the Search stage's summary.
package orchestrator
