package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrParsingYAML is returned when a YAML policy document cannot be read or decoded.
	ErrParsingYAML = errors.New("failed to parse yaml config")

	// ErrEnvFile is returned when an explicit .env file cannot be loaded.
	ErrEnvFile = errors.New("failed to load env file")

	// ErrNilPointer is returned when a nil pointer is provided to a loader.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)
