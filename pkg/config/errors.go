package config

import "errors"

var (
	ErrNilPointer      = errors.New("config: nil pointer passed to Load")
	ErrParsingConfig   = errors.New("config: failed to parse environment variables")
	ErrConfigNotLoaded = errors.New("config: configuration was not loaded")
)
