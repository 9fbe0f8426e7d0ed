package config

import "errors"

// ErrInvalidConfig marks every validation failure.
var ErrInvalidConfig = errors.New("invalid config")
