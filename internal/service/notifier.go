package service

import "requisition-backend/internal/model"

// Notifier pushes user-facing events about request lifecycle changes.
// Purely presentational; failures and absence are both fine.
type Notifier interface {
	RequestEvent(event string, requestID string, status model.RequestStatus)
}

func notify(n Notifier, event, requestID string, status model.RequestStatus) {
	if n == nil {
		return
	}
	n.RequestEvent(event, requestID, status)
}
