package linkowl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/currency"

	"github.com/linkowl/linkowl-go/pkg/async"
	"github.com/linkowl/linkowl-go/pkg/attribution"
	"github.com/linkowl/linkowl-go/pkg/config"
	"github.com/linkowl/linkowl-go/pkg/fingerprint"
	"github.com/linkowl/linkowl-go/pkg/logger"
	"github.com/linkowl/linkowl-go/pkg/metrics"
	"github.com/linkowl/linkowl-go/pkg/storage"
)

// Backend sends attribution events. *attribution.Client implements it.
type Backend interface {
	TrackInstall(ctx context.Context, fp fingerprint.Fingerprint) (string, error)
	SetUserID(ctx context.Context, userID, installID string) error
	TrackPurchase(ctx context.Context, p attribution.Purchase) error
}

// Tracker is the entry point of the SDK. Its public operations never block on
// the network and never return errors: work is dispatched to the background
// and failures are logged.
// Zero value is not usable; use New to create instances.
type Tracker struct {
	cfg        *config.Config
	baseURL    string
	store      storage.Store
	records    *storage.Records
	backend    Backend
	clientOpts []attribution.Option
	collector  *fingerprint.Collector
	dispatcher *async.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	machine    *stateMachine
	started    atomic.Bool
}

// New creates a Tracker. Without options it keeps records in memory and
// talks to the production endpoint once configured.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		cfg:       config.New(),
		collector: fingerprint.NewCollector(),
		machine:   newStateMachine(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = logger.New(
			logger.WithAttr(logger.Component("linkowl")),
			logger.WithContextExtractors(attribution.LogRequestID),
		)
	}
	if t.store == nil {
		t.store = storage.NewMemoryStore()
	}
	t.records = storage.NewRecords(t.store)

	if t.backend == nil {
		clientOpts := []attribution.Option{attribution.WithLogger(t.logger)}
		if t.metrics != nil {
			clientOpts = append(clientOpts, attribution.WithOnAttempt(t.metrics.ObserveAttempt))
		}
		t.backend = attribution.NewClient(t.cfg, append(clientOpts, t.clientOpts...)...)
	}

	if t.baseURL != "" {
		t.cfg.Configure(t.cfg.APIKey(), t.baseURL)
	}
	t.syncConfigured()

	t.dispatcher = async.NewDispatcher(t.onTaskError)
	return t
}

// Start configures the tracker and tracks the install. Only the first call has
// any effect; later calls are ignored even with a different key.
func (t *Tracker) Start(apiKey string) {
	if !t.started.CompareAndSwap(false, true) {
		t.logger.Debug("tracker already started")
		return
	}
	t.Configure(apiKey, "")
	t.TrackInstall()
}

// Configure sets the api key and, when baseURL is a valid http(s) URL, the
// endpoint. It may be called again to replace the credentials.
func (t *Tracker) Configure(apiKey, baseURL string) {
	if baseURL != "" {
		if _, ok := config.ParseBaseURL(baseURL); !ok {
			t.logger.Warn("invalid base url, keeping previous endpoint", slog.String("base_url", baseURL))
		}
	}
	t.cfg.Configure(apiKey, baseURL)
	if !t.cfg.IsConfigured() {
		t.logger.Warn("empty api key, tracker is not configured")
		return
	}
	t.syncConfigured()
}

// TrackInstall reports the install once per device. It does nothing when the
// tracker is not configured, the install is already tracked, or a tracking
// request is in flight.
func (t *Tracker) TrackInstall() {
	if !t.cfg.IsConfigured() {
		t.logger.Warn("TrackInstall called before Configure, ignoring")
		return
	}
	t.syncConfigured()

	ctx := context.Background()
	tracked, err := t.records.InstallTracked(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to read install record", logger.Error(err))
		return
	}
	if tracked {
		_ = t.machine.Fire(eventRestore)
		t.logger.DebugContext(ctx, "install already tracked")
		return
	}
	// The persisted flag is authoritative: the record may have been reset
	// here or cleared by another process sharing the store.
	if t.machine.Current() == StateTracked {
		_ = t.machine.Fire(eventInvalidate)
		t.logger.InfoContext(ctx, "install record was cleared, tracking again")
	}
	if err := t.machine.Fire(eventBegin); err != nil {
		t.logger.DebugContext(ctx, "install tracking already in progress")
		return
	}

	fp := t.collector.Collect()
	t.dispatch(attribution.OpInstall, func(ctx context.Context) error {
		return t.trackInstall(ctx, fp)
	})
}

func (t *Tracker) trackInstall(ctx context.Context, fp fingerprint.Fingerprint) error {
	succeeded := false
	defer func() {
		if !succeeded {
			_ = t.machine.Fire(eventFail)
		}
	}()

	installID, err := t.backend.TrackInstall(ctx, fp)
	if err != nil {
		return fmt.Errorf("track install: %w", err)
	}
	if err := t.records.SaveInstall(ctx, installID); err != nil {
		return fmt.Errorf("persist install: %w", err)
	}
	_ = t.machine.Fire(eventSucceed)
	succeeded = true
	t.logger.InfoContext(ctx, "install tracked", logger.InstallID(installID))

	t.sendPendingUserID(ctx, installID)
	return nil
}

// sendPendingUserID delivers a user id stored before the install id was known.
func (t *Tracker) sendPendingUserID(ctx context.Context, installID string) {
	userID, err := t.records.UserID(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to read pending user id", logger.Error(err))
		return
	}
	if userID == "" {
		return
	}

	err = t.backend.SetUserID(ctx, userID, installID)
	t.observeTask(attribution.OpUserID, err)
	if err != nil {
		t.onTaskError(attribution.OpUserID, fmt.Errorf("send pending user id: %w", err))
	}
}

// SetUserID links the install to a user id. The id is stored first; it is sent
// right away when the install id is known, otherwise after install tracking
// succeeds.
func (t *Tracker) SetUserID(userID string) {
	if !t.cfg.IsConfigured() {
		t.logger.Warn("SetUserID called before Configure, ignoring")
		return
	}
	if userID == "" {
		t.logger.Warn("empty user id, ignoring")
		return
	}

	ctx := context.Background()
	if err := t.records.SaveUserID(ctx, userID); err != nil {
		t.logger.ErrorContext(ctx, "failed to persist user id", logger.Error(err))
	}

	installID, err := t.records.InstallID(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to read install id", logger.Error(err))
		return
	}
	if installID == "" {
		t.logger.DebugContext(ctx, "install id unknown, user id will be sent after install tracking")
		return
	}

	t.dispatch(attribution.OpUserID, func(ctx context.Context) error {
		return t.backend.SetUserID(ctx, userID, installID)
	})
}

// TrackPurchase reports a purchase, attributed to the install when its id is
// already known.
func (t *Tracker) TrackPurchase(transactionID string, revenue float64, currencyCode string) {
	if !t.cfg.IsConfigured() {
		t.logger.Warn("TrackPurchase called before Configure, ignoring")
		return
	}

	ctx := context.Background()
	installID, err := t.records.InstallID(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "failed to read install id, sending purchase without it", logger.Error(err))
	}

	p := attribution.Purchase{
		InstallID:     installID,
		TransactionID: transactionID,
		Revenue:       revenue,
		Currency:      t.canonicalCurrency(currencyCode),
	}
	t.dispatch(attribution.OpPurchase, func(ctx context.Context) error {
		return t.backend.TrackPurchase(ctx, p)
	})
}

// State returns the current lifecycle state. A tracked install whose
// persisted record has since been cleared reports StateConfiguredNotTracked.
func (t *Tracker) State() State {
	if !t.cfg.IsConfigured() {
		return StateNotConfigured
	}
	if t.machine.Current() == StateTracked {
		tracked, err := t.records.InstallTracked(context.Background())
		if err == nil && !tracked {
			_ = t.machine.Fire(eventInvalidate)
		}
	}
	return t.machine.Current()
}

// Record returns what is persisted for this install.
func (t *Tracker) Record(ctx context.Context) (storage.InstallRecord, error) {
	return t.records.Load(ctx)
}

// Wait blocks until all background work has finished.
func (t *Tracker) Wait() {
	t.dispatcher.Wait()
}

// WaitTimeout is Wait bounded by timeout. It returns async.ErrTimeout when
// work is still running after timeout.
func (t *Tracker) WaitTimeout(timeout time.Duration) error {
	return t.dispatcher.WaitTimeout(timeout)
}

func (t *Tracker) dispatch(op string, fn func(ctx context.Context) error) {
	t.dispatcher.Go(op, func(ctx context.Context) error {
		err := fn(ctx)
		t.observeTask(op, err)
		return err
	})
}

func (t *Tracker) observeTask(op string, err error) {
	if t.metrics != nil {
		t.metrics.ObserveTask(op, err)
	}
}

func (t *Tracker) onTaskError(task string, err error) {
	attrs := []any{logger.Operation(task), logger.Error(err)}
	if errors.Is(err, async.ErrPanic) {
		t.logger.Error("background task panicked", attrs...)
		return
	}
	t.logger.Warn("background task failed", attrs...)
}

// syncConfigured moves the machine out of StateNotConfigured once credentials
// are present.
func (t *Tracker) syncConfigured() {
	if t.cfg.IsConfigured() && t.machine.Current() == StateNotConfigured {
		_ = t.machine.Fire(eventConfigure)
	}
}

// canonicalCurrency upper-cases valid ISO 4217 codes. Anything else is sent
// unchanged so the service can decide.
func (t *Tracker) canonicalCurrency(code string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		t.logger.Warn("unrecognised currency code, sending as is", slog.String("currency", code))
		return code
	}
	return unit.String()
}
