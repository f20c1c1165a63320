package fingerprint

import (
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// DefaultLocale is reported when no usable locale is found in the environment.
	DefaultLocale = "en-US"
	// DefaultTimezone is reported when the local zone has no IANA name.
	DefaultTimezone = "UTC"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Fingerprint is a snapshot of non-identifying context signals used for
// probabilistic install matching. It never carries a device or advertising
// identifier. Every field is always serialized so the JSON shape is fixed.
type Fingerprint struct {
	Timezone     string `json:"timezone"`
	Locale       string `json:"locale"`
	Timestamp    string `json:"timestamp"`
	Platform     string `json:"platform"`
	OSVersion    string `json:"os_version"`
	ScreenWidth  int    `json:"screen_width"`
	ScreenHeight int    `json:"screen_height"`
}

// DeviceInfo holds coarse platform attributes supplied by the host app.
type DeviceInfo struct {
	OSVersion    string
	ScreenWidth  int
	ScreenHeight int
}

// Collector builds fingerprints from ambient system information.
// Zero value is not usable; use NewCollector to create instances.
type Collector struct {
	now      func() time.Time
	locale   func() string
	timezone func() string
	device   func() DeviceInfo
}

// NewCollector creates a collector reading the system clock, locale and timezone.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		now:      time.Now,
		locale:   detectLocale,
		timezone: detectTimezone,
		device:   func() DeviceInfo { return DeviceInfo{} },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCollector = NewCollector()

// Collect returns a fingerprint from the default collector.
func Collect() Fingerprint {
	return defaultCollector.Collect()
}

// Collect returns a fresh fingerprint. It has no side effects.
func (c *Collector) Collect() Fingerprint {
	d := c.device()

	return Fingerprint{
		Timezone:     nonEmpty(c.timezone(), DefaultTimezone),
		Locale:       CanonicalLocale(c.locale()),
		Timestamp:    c.now().UTC().Format(timestampLayout),
		Platform:     runtime.GOOS,
		OSVersion:    d.OSVersion,
		ScreenWidth:  max(d.ScreenWidth, 0),
		ScreenHeight: max(d.ScreenHeight, 0),
	}
}

// CanonicalLocale turns POSIX ("en_GB.UTF-8") or BCP 47 ("en-gb") locale
// strings into a canonical BCP 47 tag ("en-GB"). Empty, "C", "POSIX" and
// unparseable values yield DefaultLocale.
func CanonicalLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, ".@"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" || raw == "C" || raw == "POSIX" {
		return DefaultLocale
	}

	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil || tag == language.Und {
		return DefaultLocale
	}
	return tag.String()
}

func detectLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func detectTimezone() string {
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		return tz
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		if _, zone, ok := strings.Cut(target, "zoneinfo/"); ok && zone != "" {
			return zone
		}
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return ""
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
