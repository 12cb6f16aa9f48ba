package progress

import "errors"

var (
	// ErrSnapshotStoreRequired is returned when the tracker is built
	// without a snapshot store.
	ErrSnapshotStoreRequired = errors.New("snapshot store is required")

	// ErrDocumentNotFound is returned for operations on an unknown
	// document tracking id.
	ErrDocumentNotFound = errors.New("tracked document not found")

	// ErrBatchNotFound is returned for operations on an unknown batch id.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrNotificationNotFound is returned when marking an unknown
	// notification as read.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrTrackerClosed is returned for operations after Close.
	ErrTrackerClosed = errors.New("progress tracker is closed")
)
