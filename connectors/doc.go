// Package connectors fetches documents from external sources and writes
// them through an ingestion sink.
//
// Each connector performs one bounded HTTP request (or feed fetch), maps the
// provider's items into ingestion items, writes them, and returns a Result.
// Connectors never return Go errors or panic across their boundary: every
// outcome, including missing credentials, transport failures and
// provider-reported errors, is a Result with a Kind callers can branch on
// and a human-readable Summary.
//
// The market quote lookup is the exception to ingestion: it returns a
// QuoteResult and never writes to the store.
package connectors
