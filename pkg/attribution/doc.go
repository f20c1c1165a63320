// Package attribution is the HTTP client of the LinkOwl attribution service.
//
// Client exposes one method per endpoint:
//
//	POST  {base}/api/v1/installs              TrackInstall -> install id
//	PATCH {base}/api/v1/installs/{installID}  SetUserID
//	POST  {base}/api/v1/purchases             TrackPurchase
//
// Every request is JSON with Content-Type: application/json, the api key in
// X-API-Key and a per-call X-Request-ID that stays the same across a retry.
//
// # Retry policy
//
// A request is retried once after a fixed 2 second delay when the response is
// not 2xx or the transport fails. Each attempt has a 10 second timeout, and a
// timeout counts as a transport failure. A body that cannot be encoded fails
// immediately without any network I/O. WithMaxRetries, WithRetryDelay and
// WithTimeout change the policy; tests use them to keep delays short.
//
// # Error Handling
//
// Methods return wrapped sentinel errors: ErrNotConfigured, ErrEncode,
// ErrTransport, ErrTimeout, ErrStatus (with *StatusError), ErrDecode and
// ErrDeliveryFailed once retries are exhausted. The client never panics on
// service misbehaviour; callers that must stay silent, like linkowl.Tracker,
// log the error and drop it.
//
// WithOnAttempt exposes every attempt to observers such as pkg/metrics.
package attribution
