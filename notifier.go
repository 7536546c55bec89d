package fetcch

import (
	"time"

	"github.com/google/uuid"
)

// Handle correlates a visible notification across updates.
type Handle string

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// NotificationKind is the visual state of a notification.
type NotificationKind string

const (
	NotificationLoading NotificationKind = "loading"
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a single user-visible status message.
type Notification struct {
	Handle    Handle           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Notifier is the surface the checkout flow reports progress to.
// Implementations must be safe for concurrent use: settlement updates arrive
// from the polling goroutine.
type Notifier interface {
	// Loading opens a persistent notification and returns its handle.
	Loading(message string) Handle

	// Success shows a one-shot success message.
	Success(message string) Handle

	// Error shows a one-shot error message.
	Error(message string) Handle

	// Update replaces the kind and message of an existing notification in place.
	Update(h Handle, kind NotificationKind, message string)
}
