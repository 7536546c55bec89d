package notify

import "github.com/mark3labs/fetcch-go"

// Multi fans notifications out to several surfaces. The handle returned by
// the first surface is reused for the rest so that updates stay correlated.
type Multi []fetcch.Notifier

var _ fetcch.Notifier = Multi(nil)

func (m Multi) Loading(message string) fetcch.Handle {
	return m.open(fetcch.NotificationLoading, message)
}

func (m Multi) Success(message string) fetcch.Handle {
	return m.open(fetcch.NotificationSuccess, message)
}

func (m Multi) Error(message string) fetcch.Handle {
	return m.open(fetcch.NotificationError, message)
}

func (m Multi) Update(h fetcch.Handle, kind fetcch.NotificationKind, message string) {
	for _, n := range m {
		n.Update(h, kind, message)
	}
}

func (m Multi) open(kind fetcch.NotificationKind, message string) fetcch.Handle {
	if len(m) == 0 {
		return fetcch.NewHandle()
	}

	var h fetcch.Handle
	switch kind {
	case fetcch.NotificationLoading:
		h = m[0].Loading(message)
	case fetcch.NotificationSuccess:
		h = m[0].Success(message)
	default:
		h = m[0].Error(message)
	}

	// Surfaces create entries for unknown handles on Update.
	for _, n := range m[1:] {
		n.Update(h, kind, message)
	}
	return h
}
