package domain

import "errors"

// Domain errors.
var (
	// ErrCollectionNotFound is returned when a collection cannot be found.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrEmptyCollectionName is returned when a collection name is empty.
	ErrEmptyCollectionName = errors.New("collection name cannot be empty")

	// ErrListNotFound is returned when a list cannot be found.
	ErrListNotFound = errors.New("list not found")

	// ErrEmptyListName is returned when a list name is empty.
	ErrEmptyListName = errors.New("list name cannot be empty")

	// ErrListLimitExceeded is returned when creating a list beyond the cap.
	ErrListLimitExceeded = errors.New("list limit exceeded")

	// ErrUserNotInList is returned when removing a username that is not a member.
	ErrUserNotInList = errors.New("user not in list")

	// ErrPersistenceFailed is returned when a store read or write is rejected.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrNetworkFailed is returned when a remote page fetch is rejected.
	ErrNetworkFailed = errors.New("network request failed")

	// ErrFetchInFlight is returned when a fetch is requested while another
	// one is pending on the same feed instance.
	ErrFetchInFlight = errors.New("fetch already in flight")

	// ErrDecryptionFailed is returned for a corrupt or incompatible backup payload.
	ErrDecryptionFailed = errors.New("backup payload decryption failed")

	// ErrSnapshotNotFound is returned when no remote snapshot exists for the device.
	ErrSnapshotNotFound = errors.New("backup snapshot not found")

	// ErrPartialApply is returned when a multi-key write completed only partway.
	// Keys already written remain, there is no rollback.
	ErrPartialApply = errors.New("multi-key apply partially completed")

	// ErrNotConfirmed is returned when the user declines a destructive operation.
	ErrNotConfirmed = errors.New("operation not confirmed")
)
