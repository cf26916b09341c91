package verdict

// Status is the terminal verdict for one verification run.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// Derive maps the three stage booleans onto a status. StatusError is never
// produced here; the runner assigns it when a stage aborts abnormally.
func Derive(buildSuccess bool, testsPassed bool, mocksDetected bool) Status {
	if !buildSuccess || !testsPassed {
		return StatusFailed
	}
	if mocksDetected {
		return StatusPartial
	}
	return StatusPassed
}

// AllLabels lists every label a verdict can apply. Publishers use it to strip
// stale labels from earlier runs before applying the current one.
func AllLabels() []string {
	return []string{"verification-passed", "verification-partial", "verification-failed"}
}

// Label returns the issue label for a status, and false for StatusError,
// which deliberately gets a comment but no label.
func Label(status Status) (string, bool) {
	switch status {
	case StatusPassed:
		return "verification-passed", true
	case StatusPartial:
		return "verification-partial", true
	case StatusFailed:
		return "verification-failed", true
	default:
		return "", false
	}
}
