package newsdesk

import "errors"

// ErrUnknownConnector is returned by Ingest for a connector name it does not know.
var ErrUnknownConnector = errors.New("unknown connector")
