package config

import (
	"net/url"
	"strings"
	"sync"
)

// DefaultBaseURL is the production attribution endpoint.
const DefaultBaseURL = "https://linkowl.app"

// Config holds the credentials used by every attribution request.
// It lives for the whole process and is never persisted, so hosts must
// configure it again on every launch.
// Zero value is not usable; use New to create instances.
type Config struct {
	mu      sync.RWMutex
	apiKey  string
	baseURL string
}

// New returns an unconfigured Config pointing at DefaultBaseURL.
func New() *Config {
	return &Config{baseURL: DefaultBaseURL}
}

// Configure stores apiKey unconditionally. baseURL replaces the current endpoint
// only when it is an absolute http(s) URL; anything else keeps the previous value.
// The api key format is not validated here.
func (c *Config) Configure(apiKey, baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.apiKey = apiKey
	if u, ok := ParseBaseURL(baseURL); ok {
		c.baseURL = u
	}
}

// IsConfigured reports whether an api key has been supplied.
func (c *Config) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// APIKey returns the configured api key or an empty string.
func (c *Config) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// BaseURL returns the endpoint requests are sent to.
func (c *Config) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Credentials returns a consistent snapshot of the api key and endpoint.
// ok is false while no api key is configured.
func (c *Config) Credentials() (apiKey, baseURL string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey, c.baseURL, c.apiKey != ""
}

// ParseBaseURL validates a base endpoint and returns it without a trailing slash.
// Only absolute http and https URLs with a host are accepted.
func ParseBaseURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}

	return strings.TrimRight(u.String(), "/"), true
}
