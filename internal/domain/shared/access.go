package shared

import "context"

type elevatedKey struct{}

// WithElevatedAccess marks ctx as running with the service capability. Work
// done under it bypasses per-merchant row scoping, which operations such as
// anonymous booking creation, booking linking and admin reconciliation need
// because they legitimately cross tenants.
func WithElevatedAccess(ctx context.Context) context.Context {
	return context.WithValue(ctx, elevatedKey{}, true)
}

// HasElevatedAccess reports whether ctx carries the service capability
func HasElevatedAccess(ctx context.Context) bool {
	v, _ := ctx.Value(elevatedKey{}).(bool)
	return v
}
