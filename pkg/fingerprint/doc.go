// Package fingerprint collects the context signals sent with an install report.
//
// A Fingerprint holds the timezone, locale, a UTC timestamp, the platform name and,
// when the host provides them, the OS version and screen size. It deliberately
// holds nothing that identifies a device across installs: the attribution
// service matches installs probabilistically from these signals plus the
// request IP it sees on its side.
//
// Locale and timezone are read from the process environment. Locales are
// canonicalised to BCP 47 with golang.org/x/text/language. Both fall back to
// DefaultLocale and DefaultTimezone so they are never empty.
//
//	fp := fingerprint.Collect()
//
//	c := fingerprint.NewCollector(
//	    fingerprint.WithLocale("de_DE"),
//	    fingerprint.WithDeviceInfo(func() fingerprint.DeviceInfo {
//	        return fingerprint.DeviceInfo{OSVersion: "17.4", ScreenWidth: 390, ScreenHeight: 844}
//	    }),
//	)
//	fp = c.Collect()
package fingerprint
