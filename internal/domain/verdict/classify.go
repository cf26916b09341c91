package verdict

import "strings"

// CompletionRules drives completion-signal classification: the acting party
// must be one of the automation identities AND the text must contain at least
// one completion keyword. Matching is case-insensitive.
type CompletionRules struct {
	Actors   []string
	Keywords []string
}

// DefaultCompletionRules covers the common remote-agent phrasings. Deployments
// override both lists through the project mapping file.
func DefaultCompletionRules() CompletionRules {
	return CompletionRules{
		Actors: []string{
			"codex[bot]",
			"copilot[bot]",
			"devin-ai-integration[bot]",
		},
		Keywords: []string{
			"implementation complete",
			"implementation is complete",
			"finished implementing",
			"work is complete",
			"ready for review",
			"opened a pull request",
			"created a pull request",
			"pr created",
		},
	}
}

// IsCompletionSignal is a pure function of payload content; it performs no
// side effects and tolerates empty fields.
func (r CompletionRules) IsCompletionSignal(actor string, text string) bool {
	normalizedActor := strings.ToLower(strings.TrimSpace(actor))
	if normalizedActor == "" {
		return false
	}

	actorMatched := false
	for _, candidate := range r.Actors {
		if strings.ToLower(strings.TrimSpace(candidate)) == normalizedActor {
			actorMatched = true
			break
		}
	}
	if !actorMatched {
		return false
	}

	normalizedText := strings.ToLower(text)
	if strings.TrimSpace(normalizedText) == "" {
		return false
	}
	for _, keyword := range r.Keywords {
		normalizedKeyword := strings.ToLower(strings.TrimSpace(keyword))
		if normalizedKeyword == "" {
			continue
		}
		if strings.Contains(normalizedText, normalizedKeyword) {
			return true
		}
	}
	return false
}
