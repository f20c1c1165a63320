// Package config holds the runtime attribution credentials and the loaders used
// to populate them from the environment or a file.
//
// Config is the in-memory, process-wide credential holder: an api key plus the
// base endpoint. It is set at startup with Configure and read by every request.
// Invalid base URLs are ignored silently so a typo never breaks the host app.
//
//	cfg := config.New()
//	cfg.Configure("lo_live_xxxx", "")
//	cfg.IsConfigured() // true
//
// Settings is the wiring struct for hosts and the linkowl CLI. Load parses it from
// environment variables (github.com/caarlos0/env/v11) after reading an optional .env
// file (github.com/joho/godotenv). LoadFile reads a YAML file (gopkg.in/yaml.v3)
// first and lets set environment variables override it.
//
// # Error Handling
//
// Loaders return sentinel errors comparable with errors.Is: ErrParsingConfig,
// ErrReadingFile, ErrParsingFile and ErrNilPointer.
package config
