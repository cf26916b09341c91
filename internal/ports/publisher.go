package ports

import "context"

// VerdictPublisher delivers a verdict back to the originating issue thread.
// Delivery failure never unwinds persisted state; callers log and move on.
type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, result VerificationResult) error
}

// VerdictNotifier fans a persisted verdict out to downstream consumers
// (message bus). Best effort, same failure policy as VerdictPublisher.
type VerdictNotifier interface {
	NotifyVerdict(ctx context.Context, result VerificationResult) error
}
