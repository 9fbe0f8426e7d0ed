// Package ingestion turns raw source items into stored documents.
//
// The Pipeline normalizes each item's date, validates it, embeds its text
// synchronously and appends it to the document store. Writes are append-only:
// ingesting the same URL twice produces two documents.
//
// Errors are returned to the caller, typically a source connector, which
// reports them in its own result instead of failing the research run.
package ingestion
