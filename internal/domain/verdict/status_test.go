package verdict

import "testing"

func TestDeriveCoversEveryTriple(t *testing.T) {
	testCases := []struct {
		buildSuccess  bool
		testsPassed   bool
		mocksDetected bool
		want          Status
	}{
		{true, true, false, StatusPassed},
		{true, true, true, StatusPartial},
		{true, false, false, StatusFailed},
		{true, false, true, StatusFailed},
		{false, false, false, StatusFailed},
		{false, false, true, StatusFailed},
		{false, true, false, StatusFailed},
		{false, true, true, StatusFailed},
	}

	for _, testCase := range testCases {
		got := Derive(testCase.buildSuccess, testCase.testsPassed, testCase.mocksDetected)
		if got != testCase.want {
			t.Fatalf("Derive(%v, %v, %v) = %q, want %q",
				testCase.buildSuccess, testCase.testsPassed, testCase.mocksDetected, got, testCase.want)
		}
	}
}

func TestLabelByStatus(t *testing.T) {
	testCases := []struct {
		status Status
		want   string
		wantOK bool
	}{
		{StatusPassed, "verification-passed", true},
		{StatusPartial, "verification-partial", true},
		{StatusFailed, "verification-failed", true},
		{StatusError, "", false},
	}

	for _, testCase := range testCases {
		got, ok := Label(testCase.status)
		if got != testCase.want || ok != testCase.wantOK {
			t.Fatalf("Label(%q) = (%q, %v), want (%q, %v)", testCase.status, got, ok, testCase.want, testCase.wantOK)
		}
	}
}

func TestIsCompletionSignalRequiresActorAndKeyword(t *testing.T) {
	rules := CompletionRules{
		Actors:   []string{"codex[bot]"},
		Keywords: []string{"implementation complete", "ready for review"},
	}

	if !rules.IsCompletionSignal("codex[bot]", "Implementation COMPLETE, see PR.") {
		t.Fatalf("expected completion signal for matching actor and keyword")
	}
	if !rules.IsCompletionSignal(" Codex[Bot] ", "this change is ready for review") {
		t.Fatalf("expected case-insensitive actor match")
	}
	if rules.IsCompletionSignal("human-dev", "implementation complete") {
		t.Fatalf("non-automation actor must not classify as completion")
	}
	if rules.IsCompletionSignal("codex[bot]", "still working on it") {
		t.Fatalf("text without keywords must not classify as completion")
	}
	if rules.IsCompletionSignal("codex[bot]", "") {
		t.Fatalf("empty text must not classify as completion")
	}
	if rules.IsCompletionSignal("", "implementation complete") {
		t.Fatalf("empty actor must not classify as completion")
	}
}

func TestDefaultCompletionRulesNotEmpty(t *testing.T) {
	rules := DefaultCompletionRules()
	if len(rules.Actors) == 0 || len(rules.Keywords) == 0 {
		t.Fatalf("default rules must carry actors and keywords, got %+v", rules)
	}
}
