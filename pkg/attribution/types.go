package attribution

import (
	"time"

	"github.com/linkowl/linkowl-go/pkg/fingerprint"
)

// Operation names used in logs, metrics and Attempt records.
const (
	OpInstall  = "install"
	OpUserID   = "user_id"
	OpPurchase = "purchase"
)

// Request paths relative to the base URL.
const (
	installsPath  = "/api/v1/installs"
	purchasesPath = "/api/v1/purchases"
)

// Purchase is a single purchase report. InstallID may be empty when the
// purchase happens before install tracking completed.
type Purchase struct {
	InstallID     string  `json:"install_id,omitempty"`
	TransactionID string  `json:"transaction_id"`
	Revenue       float64 `json:"revenue"`
	Currency      string  `json:"currency"`
}

type installRequest struct {
	APIKey      string                  `json:"api_key"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

type installResponse struct {
	InstallID string `json:"install_id"`
}

type userIDRequest struct {
	UserID string `json:"rc_user_id"`
}

// Attempt describes one HTTP attempt of a request.
type Attempt struct {
	Operation  string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Success reports whether the attempt received a 2xx response.
func (a Attempt) Success() bool {
	return a.Err == nil
}

// AttemptHook is called after every attempt, from the goroutine running the request.
type AttemptHook func(Attempt)
