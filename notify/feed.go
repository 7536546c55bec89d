// Package notify implements the notification surfaces the checkout flow
// reports to: an in-memory feed served by the storefront API, a structured
// log sink, and a fan-out combining several surfaces under one handle.
package notify

import (
	"sync"
	"time"

	"github.com/mark3labs/fetcch-go"
)

// DefaultFeedLimit bounds the number of notifications a Feed keeps.
const DefaultFeedLimit = 50

// Feed is an ordered, in-memory list of notifications. Updates replace an
// entry in place, so a client rendering the feed sees one toast move from
// loading to success. The oldest entries are dropped beyond Limit.
type Feed struct {
	Limit int

	mu    sync.Mutex
	items []fetcch.Notification
	now   func() time.Time
}

var _ fetcch.Notifier = (*Feed)(nil)

// NewFeed creates an empty Feed with DefaultFeedLimit.
func NewFeed() *Feed {
	return &Feed{Limit: DefaultFeedLimit, now: time.Now}
}

func (f *Feed) Loading(message string) fetcch.Handle {
	return f.add(fetcch.NewHandle(), fetcch.NotificationLoading, message)
}

func (f *Feed) Success(message string) fetcch.Handle {
	return f.add(fetcch.NewHandle(), fetcch.NotificationSuccess, message)
}

func (f *Feed) Error(message string) fetcch.Handle {
	return f.add(fetcch.NewHandle(), fetcch.NotificationError, message)
}

// Update replaces the entry for h. Unknown handles are appended, matching
// toast libraries that create a toast when updating an id they do not know.
func (f *Feed) Update(h fetcch.Handle, kind fetcch.NotificationKind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].Handle == h {
			f.items[i].Kind = kind
			f.items[i].Message = message
			f.items[i].UpdatedAt = f.clock()
			return
		}
	}
	f.appendLocked(h, kind, message)
}

// List returns a snapshot of the feed, oldest first.
func (f *Feed) List() []fetcch.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]fetcch.Notification, len(f.items))
	copy(out, f.items)
	return out
}

// Get returns the notification for h.
func (f *Feed) Get(h fetcch.Handle) (fetcch.Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.items {
		if n.Handle == h {
			return n, true
		}
	}
	return fetcch.Notification{}, false
}

func (f *Feed) add(h fetcch.Handle, kind fetcch.NotificationKind, message string) fetcch.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendLocked(h, kind, message)
	return h
}

func (f *Feed) appendLocked(h fetcch.Handle, kind fetcch.NotificationKind, message string) {
	f.items = append(f.items, fetcch.Notification{
		Handle:    h,
		Kind:      kind,
		Message:   message,
		UpdatedAt: f.clock(),
	})

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if len(f.items) > limit {
		f.items = append([]fetcch.Notification(nil), f.items[len(f.items)-limit:]...)
	}
}

func (f *Feed) clock() time.Time {
	if f.now == nil {
		return time.Now()
	}
	return f.now()
}
