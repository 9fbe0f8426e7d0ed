// Package server exposes newsdesk over HTTP.
//
// Routes:
//
//	POST /v1/ask                 {"query": "..."}            run the research pipeline
//	POST /v1/ingest/{connector}  {"input": "..."}            run one ingesting connector
//	GET  /v1/quotes/{ticker}                                 market quote, not stored
//	GET  /v1/retrieve?q=&window_days=&k=                     evidence block for a question
//	GET  /healthz                                            store liveness and document count
//	GET  /metrics                                            Prometheus metrics
package server
