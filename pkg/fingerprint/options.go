package fingerprint

import "time"

// Option configures a Collector.
type Option func(*Collector)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocale reports a fixed locale, for hosts that know the user's language
// better than the process environment does.
func WithLocale(locale string) Option {
	return func(c *Collector) {
		if locale != "" {
			c.locale = func() string { return locale }
		}
	}
}

// WithTimezone reports a fixed IANA timezone name.
func WithTimezone(tz string) Option {
	return func(c *Collector) {
		if tz != "" {
			c.timezone = func() string { return tz }
		}
	}
}

// WithDeviceInfo registers the host hook for coarse device attributes.
// It is called on every Collect.
func WithDeviceInfo(fn func() DeviceInfo) Option {
	return func(c *Collector) {
		if fn != nil {
			c.device = fn
		}
	}
}
