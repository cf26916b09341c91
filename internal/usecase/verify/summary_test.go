package verify

import (
	"strings"
	"testing"

	"verigate/internal/domain/verdict"
	"verigate/internal/ports"
)

func TestRenderSummaryReflectsStageFields(t *testing.T) {
	result := ports.VerificationResult{
		ProjectName:   "billing",
		IssueNumber:   12,
		Status:        string(verdict.StatusPartial),
		BuildSuccess:  true,
		TestsPassed:   true,
		MocksDetected: true,
		MockFiles:     []string{"internal/payments/charge.go", "internal/payments/refund.go"},
		MockCount:     5,
	}

	got := RenderSummary(result)
	for _, want := range []string{
		"## Verification Report — billing#12",
		"**Verdict: PARTIAL**",
		"- Build: ✅ success",
		"- Tests: ✅ passed",
		"- Placeholders: ⚠️ 5 occurrence(s) in 2 file(s)",
		"`internal/payments/charge.go`",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestRenderSummarySkippedTests(t *testing.T) {
	result := ports.VerificationResult{
		ProjectName: "billing",
		IssueNumber: 2,
		Status:      string(verdict.StatusFailed),
		BuildError:  "undefined: Frobnicate",
		TestError:   testsSkippedNote,
	}

	got := RenderSummary(result)
	if !strings.Contains(got, "- Tests: ⏭️ skipped due to build failure") {
		t.Fatalf("summary missing skipped tests line:\n%s", got)
	}
	if !strings.Contains(got, "undefined: Frobnicate") {
		t.Fatalf("summary missing build excerpt:\n%s", got)
	}
	if strings.Contains(got, "<details><summary>Test output</summary>") {
		t.Fatalf("summary must not include test output when the build failed:\n%s", got)
	}
}

func TestRenderSummaryTruncatesLongOutput(t *testing.T) {
	result := ports.VerificationResult{
		ProjectName: "billing",
		IssueNumber: 1,
		Status:      string(verdict.StatusFailed),
		BuildError:  strings.Repeat("x", excerptLimit+500),
	}

	got := RenderSummary(result)
	if !strings.Contains(got, "… (truncated)") {
		t.Fatalf("summary missing truncation marker:\n%s", got[:200])
	}
	if strings.Contains(got, strings.Repeat("x", excerptLimit+1)) {
		t.Fatal("summary carried the full untruncated excerpt")
	}
}
