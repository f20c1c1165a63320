// Package linkowl is a client SDK for the LinkOwl attribution service.
//
// A Tracker reports an app install once per device, links that install to a
// subscription user id and reports purchases. Every public operation returns
// immediately: network work runs in the background with one retry, and
// failures are logged rather than returned.
//
// Basic Usage:
//
//	store, err := storage.OpenBadger(storage.BadgerConfig{Path: dataDir})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	tracker := linkowl.New(linkowl.WithStore(store))
//	tracker.Start("lo_live_...")
//
//	// later, once the user id is known
//	tracker.SetUserID(customerID)
//
//	// after a purchase
//	tracker.TrackPurchase(txID, 9.99, "USD")
//
// Persistence:
//
// The install flag, install id and user id are stored under fixed keys in the
// configured storage.Store. The install flag is written only after the install
// id, so a tracked install always has an id. Without WithStore the tracker
// keeps records in memory and re-reports the install on every process start.
//
// Lifecycle:
//
// State moves from StateNotConfigured to StateConfiguredNotTracked on
// Configure, to StateTracking while an install request is in flight and to
// StateTracked once the id is persisted. A failed request returns to
// StateConfiguredNotTracked so the next TrackInstall tries again.
//
// Wait and WaitTimeout block until background work has drained. They exist
// for tests and for short-lived hosts such as CLIs.
package linkowl
