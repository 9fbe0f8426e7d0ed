// Package reembed recomputes the vector of every stored document with the
// current embedder.
//
// Vectors produced by different embedding models are not comparable, so a
// model change leaves similarity search returning noise until the store is
// re-embedded. Documents are processed in ID order in fixed-size batches.
// With a checkpoint repository configured, progress is saved after each
// batch and an interrupted run resumes where it stopped.
package reembed
