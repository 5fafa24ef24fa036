package audit

import (
	"context"

	id "propverify/pkg/domain"
)

// Store persists audit events. Append must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back. Write-only
// sinks such as the Kafka producer do not implement it.
type Lister interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
