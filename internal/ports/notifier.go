package ports

import "context"

// Notifier delivers a best-effort out-of-band alert. Implementations must
// never block trading: callers log a failed Notify and move on.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
