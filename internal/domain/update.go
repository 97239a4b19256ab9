package domain

import "context"

// PropertyUpdate is a notification that a shopping center's record changed
// and its coordinates may need re-resolution. Commit acknowledges the
// underlying message once the update has been handled (at-least-once).
type PropertyUpdate struct {
	PropertyID int64
	Action     string
	Commit     func(ctx context.Context) error
}
