// Package backup implements the encrypted backup, restore and clear
// flows. A device is identified by a generated canary id; its entire
// managed key set is serialized, encrypted and written as a single
// remote snapshot that a later Restore overwrites local state from.
package backup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/canary/internal/domain"
	"github.com/iconidentify/canary/internal/event"
	"github.com/iconidentify/canary/internal/store"
	"github.com/iconidentify/canary/pkg/crypto"
	"github.com/iconidentify/canary/pkg/retry"
)

const (
	// canaryIDPrefix marks device identifiers.
	canaryIDPrefix = "canary_"

	// canaryIDSuffixLen is the random suffix length of a canary id.
	canaryIDSuffixLen = 8

	// DefaultPassphrase is the built-in payload passphrase. The
	// encryption obfuscates snapshots at rest rather than protecting
	// them against a determined reader.
	DefaultPassphrase = "canary"

	// DefaultClearRestartDelay is how long Clear waits before
	// restarting, leaving time for the success toast to render.
	DefaultClearRestartDelay = 5 * time.Second
)

// ConfirmRestore gates the destructive restore apply. It receives the
// snapshot timestamp so the prompt can show how old the backup is.
type ConfirmRestore func(takenAt time.Time) bool

// ConfirmClear gates the destructive local clear.
type ConfirmClear func() bool

// Engine drives the backup, restore and clear flows against the
// persistent store and the remote snapshot store.
type Engine struct {
	store   store.Store
	cache   cacheWriter
	remote  RemoteStore
	bus     *event.Bus
	logger  *slog.Logger
	restart func()

	passphrase string
	urlBase    string
	clearDelay time.Duration
	retryCfg   retry.Config

	mu   sync.Mutex
	snap *Snapshot // last fetched snapshot, dropped on upload
}

// cacheWriter is the slice of the cache the engine needs: publishing
// the device identity for synchronous reads.
type cacheWriter interface {
	SetValue(key, value string)
}

// Config configures an Engine. Zero values fall back to the built-in
// passphrase and restart delay.
type Config struct {
	// Passphrase encrypts and decrypts snapshot payloads.
	Passphrase string

	// URLBase is prepended to the canary id to form the shareable
	// restore link, e.g. "https://canary.app/restore?canary=".
	URLBase string

	// ClearRestartDelay is the pause between a completed Clear and the
	// requested restart.
	ClearRestartDelay time.Duration

	// Restart is invoked after a restore or clear has committed.
	Restart func()

	// Retry governs snapshot uploads. Zero means the package defaults.
	Retry retry.Config
}

// NewEngine creates a backup engine.
func NewEngine(s store.Store, c cacheWriter, remote RemoteStore, bus *event.Bus, logger *slog.Logger, cfg Config) *Engine {
	if cfg.Passphrase == "" {
		cfg.Passphrase = DefaultPassphrase
	}
	if cfg.ClearRestartDelay == 0 {
		cfg.ClearRestartDelay = DefaultClearRestartDelay
	}
	if cfg.Restart == nil {
		cfg.Restart = func() {}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	return &Engine{
		store:      s,
		cache:      c,
		remote:     remote,
		bus:        bus,
		logger:     logger,
		restart:    cfg.Restart,
		passphrase: cfg.Passphrase,
		urlBase:    cfg.URLBase,
		clearDelay: cfg.ClearRestartDelay,
		retryCfg:   cfg.Retry,
	}
}

// Backup exports the managed key set, encrypts it and overwrites the
// device's remote snapshot. The device identity is allocated and
// persisted before the first upload so a crash mid-backup never
// orphans a snapshot. Returns the shareable restore link.
func (e *Engine) Backup(ctx context.Context) (string, error) {
	e.bus.Emit(event.TopicShowLoader, nil)
	defer e.bus.Emit(event.TopicHideLoader, nil)

	pairs, err := e.store.MultiGet(ctx, store.BackupKeys())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	deviceID, backupURL, err := e.ensureDeviceIdentity(ctx)
	if err != nil {
		return "", err
	}

	payload := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		payload[kv.Key] = kv.Value
	}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode backup payload: %w", err)
	}

	encrypted, err := crypto.Encrypt(plaintext, e.passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt backup payload: %w", err)
	}

	snap := Snapshot{
		DeviceID:  deviceID,
		Data:      base64.StdEncoding.EncodeToString(encrypted),
		Timestamp: time.Now().UnixMilli(),
	}
	if _, err := retry.Do(ctx, e.retryCfg, func() (struct{}, error) {
		return struct{}{}, e.remote.Write(ctx, deviceID, snap)
	}); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNetworkFailed, err)
	}

	e.mu.Lock()
	e.snap = &snap
	e.mu.Unlock()

	e.logger.Info("backup uploaded", "device_id", deviceID, "keys", len(pairs))
	return backupURL, nil
}

// Restore fetches the device's snapshot, decrypts it, and, once the
// confirm callback approves, overwrites local state with its pairs and
// requests a restart. The reload marker is written only after every
// pair applied, so a partial apply boots as a normal (dirty) start.
func (e *Engine) Restore(ctx context.Context, confirm ConfirmRestore) error {
	deviceID, ok, err := e.deviceID(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSnapshotNotFound
	}
	return e.RestoreFrom(ctx, deviceID, confirm)
}

// RestoreFrom restores from the snapshot of an arbitrary canary id,
// the path a fresh install takes when following another device's
// restore link. The local device identity is left untouched.
func (e *Engine) RestoreFrom(ctx context.Context, deviceID string, confirm ConfirmRestore) error {
	e.bus.Emit(event.TopicShowLoader, nil)
	defer e.bus.Emit(event.TopicHideLoader, nil)

	snap, err := e.fetchSnapshot(ctx, deviceID)
	if err != nil {
		return err
	}

	encrypted, err := base64.StdEncoding.DecodeString(snap.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}
	plaintext, err := crypto.Decrypt(encrypted, e.passphrase)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}
	var payload map[string]string
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}

	if !confirm(snap.Time()) {
		return domain.ErrNotConfirmed
	}

	pairs := make([]store.KV, 0, len(payload))
	for key, value := range payload {
		pairs = append(pairs, store.KV{Key: key, Value: value})
	}
	if err := e.store.MultiSet(ctx, pairs); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPartialApply, err)
	}

	if err := e.store.Set(ctx, store.KeyAppReloaded, "true"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	e.logger.Info("restore applied", "device_id", deviceID, "keys", len(pairs), "taken_at", snap.Time())
	e.restart()
	return nil
}

// Clear removes every managed key from the store once the confirm
// callback approves, then restarts after the configured delay. The
// device identity and its snapshot are untouched, clearing is not
// un-backing-up.
func (e *Engine) Clear(ctx context.Context, confirm ConfirmClear) error {
	if !confirm() {
		return domain.ErrNotConfirmed
	}

	e.bus.Emit(event.TopicShowLoader, nil)
	defer e.bus.Emit(event.TopicHideLoader, nil)

	if err := e.store.MultiRemove(ctx, store.BackupKeys()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPartialApply, err)
	}
	if err := e.store.Set(ctx, store.KeyAppReloaded, "true"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	e.logger.Info("local state cleared", "restart_in", e.clearDelay)
	time.AfterFunc(e.clearDelay, e.restart)
	return nil
}

// ClearRemote deletes the device's remote snapshot. Local state,
// including the device identity, is kept.
func (e *Engine) ClearRemote(ctx context.Context) error {
	deviceID, ok, err := e.deviceID(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSnapshotNotFound
	}

	if err := e.remote.Delete(ctx, deviceID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkFailed, err)
	}

	e.mu.Lock()
	e.snap = nil
	e.mu.Unlock()

	e.logger.Info("remote snapshot deleted", "device_id", deviceID)
	return nil
}

// LastBackupTime reports when the device's snapshot was taken, ok=false
// when the device has never backed up.
func (e *Engine) LastBackupTime(ctx context.Context) (time.Time, bool, error) {
	deviceID, ok, err := e.deviceID(ctx)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	snap, err := e.fetchSnapshot(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return snap.Time(), true, nil
}

// BackupURL returns the persisted shareable restore link, ok=false
// before the first backup.
func (e *Engine) BackupURL(ctx context.Context) (string, bool, error) {
	url, ok, err := e.store.Get(ctx, store.KeyDeviceBackupURL)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	return url, ok, nil
}

func (e *Engine) deviceID(ctx context.Context) (string, bool, error) {
	id, ok, err := e.store.Get(ctx, store.KeyDeviceCanaryID)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	return id, ok, nil
}

// ensureDeviceIdentity returns the canary id and backup URL, allocating
// and persisting them on first use.
func (e *Engine) ensureDeviceIdentity(ctx context.Context) (string, string, error) {
	id, ok, err := e.deviceID(ctx)
	if err != nil {
		return "", "", err
	}
	if ok {
		url, _, err := e.BackupURL(ctx)
		if err != nil {
			return "", "", err
		}
		return id, url, nil
	}

	id = newCanaryID()
	url := e.urlBase + id
	pairs := []store.KV{
		{Key: store.KeyDeviceCanaryID, Value: id},
		{Key: store.KeyDeviceBackupURL, Value: url},
	}
	if err := e.store.MultiSet(ctx, pairs); err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	e.cache.SetValue(store.KeyDeviceCanaryID, id)
	e.cache.SetValue(store.KeyDeviceBackupURL, url)

	e.logger.Info("device identity allocated", "device_id", id)
	return id, url, nil
}

func (e *Engine) fetchSnapshot(ctx context.Context, deviceID string) (Snapshot, error) {
	e.mu.Lock()
	if e.snap != nil && e.snap.DeviceID == deviceID {
		snap := *e.snap
		e.mu.Unlock()
		return snap, nil
	}
	e.mu.Unlock()

	snap, ok, err := e.remote.Read(ctx, deviceID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", domain.ErrNetworkFailed, err)
	}
	if !ok {
		return Snapshot{}, domain.ErrSnapshotNotFound
	}

	e.mu.Lock()
	e.snap = &snap
	e.mu.Unlock()
	return snap, nil
}

func newCanaryID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return canaryIDPrefix + suffix[:canaryIDSuffixLen]
}
