package storage

import (
	"context"
	"errors"
	"strconv"
)

// Keys of the persisted install record.
const (
	KeyInstallTracked = "lo_install_tracked"
	KeyInstallID      = "lo_install_id"
	KeyUserID         = "lo_user_id"
)

// InstallRecord is the persisted attribution state of this installation.
type InstallRecord struct {
	InstallTracked bool   `json:"installTracked"`
	InstallID      string `json:"installId,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

// Records reads and writes the install record on top of a Store.
// Each field lives under its own key; there are no multi-key transactions.
type Records struct {
	store Store
}

func NewRecords(store Store) *Records {
	return &Records{store: store}
}

// Load reads the full record. Missing keys produce zero values.
func (r *Records) Load(ctx context.Context) (InstallRecord, error) {
	var rec InstallRecord
	var err error

	if rec.InstallTracked, err = r.InstallTracked(ctx); err != nil {
		return InstallRecord{}, err
	}
	if rec.InstallID, err = r.InstallID(ctx); err != nil {
		return InstallRecord{}, err
	}
	if rec.UserID, err = r.UserID(ctx); err != nil {
		return InstallRecord{}, err
	}
	return rec, nil
}

// InstallTracked reports whether an install id was durably stored.
// A missing or malformed flag reads as false.
func (r *Records) InstallTracked(ctx context.Context) (bool, error) {
	v, err := r.getString(ctx, KeyInstallTracked)
	if err != nil || v == "" {
		return false, err
	}
	tracked, perr := strconv.ParseBool(v)
	return perr == nil && tracked, nil
}

// InstallID returns the server-assigned install id or an empty string.
func (r *Records) InstallID(ctx context.Context) (string, error) {
	return r.getString(ctx, KeyInstallID)
}

// UserID returns the locally stored user id or an empty string.
func (r *Records) UserID(ctx context.Context) (string, error) {
	return r.getString(ctx, KeyUserID)
}

// SaveInstall stores installID and only then marks the install as tracked,
// so the flag is never set without an id behind it.
func (r *Records) SaveInstall(ctx context.Context, installID string) error {
	if installID == "" {
		return ErrEmptyValue
	}
	if err := r.store.Set(ctx, KeyInstallID, []byte(installID)); err != nil {
		return err
	}
	return r.store.Set(ctx, KeyInstallTracked, []byte(strconv.FormatBool(true)))
}

// SaveUserID stores the user id to link with the install.
func (r *Records) SaveUserID(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyValue
	}
	return r.store.Set(ctx, KeyUserID, []byte(userID))
}

// Reset deletes the whole record; the next install tracking call reports a new install.
func (r *Records) Reset(ctx context.Context) error {
	// Flag first: an interrupted reset must not leave a tracked flag without an id.
	for _, key := range []string{KeyInstallTracked, KeyInstallID, KeyUserID} {
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *Records) getString(ctx context.Context, key string) (string, error) {
	v, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}
