package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Snapshot is the remote record for one device, keyed by its canary id.
// Data is the base64 of the encrypted payload.
type Snapshot struct {
	DeviceID  string `json:"id"`
	Data      string `json:"data"`
	Timestamp int64  `json:"time_stamp"` // unix milliseconds
}

// Time returns the snapshot timestamp.
func (s Snapshot) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// RemoteStore is the remote backup collaborator: keyed record access by
// device id. Write overwrites any prior snapshot, there is no versioning.
type RemoteStore interface {
	Write(ctx context.Context, deviceID string, snap Snapshot) error
	Read(ctx context.Context, deviceID string) (Snapshot, bool, error)
	Delete(ctx context.Context, deviceID string) error
}

// HTTPRemoteStore talks to a keyed-record REST endpoint.
type HTTPRemoteStore struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// HTTPRemoteStoreConfig configures an HTTPRemoteStore.
type HTTPRemoteStoreConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPRemoteStore creates a remote store client with defaults applied.
func NewHTTPRemoteStore(cfg HTTPRemoteStoreConfig) *HTTPRemoteStore {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "canaryd/1.0"
	}
	return &HTTPRemoteStore{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  ua,
	}
}

func (r *HTTPRemoteStore) snapshotURL(deviceID string) string {
	return r.baseURL + "/snapshots/" + deviceID
}

// Write uploads the snapshot, overwriting any prior one for the device.
func (r *HTTPRemoteStore) Write(ctx context.Context, deviceID string, snap Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.snapshotURL(deviceID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}

// Read downloads the snapshot for the device, absent=false on 404.
func (r *HTTPRemoteStore) Read(ctx context.Context, deviceID string) (Snapshot, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.snapshotURL(deviceID), nil)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("download snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Snapshot{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, false, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Delete removes the device's snapshot. Deleting an absent snapshot is
// a no-op.
func (r *HTTPRemoteStore) Delete(ctx context.Context, deviceID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.snapshotURL(deviceID), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete returned status %d", resp.StatusCode)
	}
	return nil
}

// MemoryRemoteStore is an in-memory RemoteStore for tests.
type MemoryRemoteStore struct {
	snapshots map[string]Snapshot
	writeErr  error
	readErr   error
}

// NewMemoryRemoteStore creates an empty in-memory remote store.
func NewMemoryRemoteStore() *MemoryRemoteStore {
	return &MemoryRemoteStore{snapshots: make(map[string]Snapshot)}
}

// FailWrites makes Write return err.
func (m *MemoryRemoteStore) FailWrites(err error) { m.writeErr = err }

// FailReads makes Read return err.
func (m *MemoryRemoteStore) FailReads(err error) { m.readErr = err }

// Write stores the snapshot.
func (m *MemoryRemoteStore) Write(ctx context.Context, deviceID string, snap Snapshot) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.snapshots[deviceID] = snap
	return nil
}

// Read returns the stored snapshot, if any.
func (m *MemoryRemoteStore) Read(ctx context.Context, deviceID string) (Snapshot, bool, error) {
	if m.readErr != nil {
		return Snapshot{}, false, m.readErr
	}
	snap, ok := m.snapshots[deviceID]
	return snap, ok, nil
}

// Delete removes the stored snapshot.
func (m *MemoryRemoteStore) Delete(ctx context.Context, deviceID string) error {
	delete(m.snapshots, deviceID)
	return nil
}
