package verify

import (
	"fmt"
	"strings"

	"verigate/internal/domain/verdict"
	"verigate/internal/ports"
)

// excerptLimit caps captured build/test output inside the rendered comment so
// a noisy toolchain cannot produce an oversized issue comment.
const excerptLimit = 1200

const maxListedMockFiles = 20

// RenderSummary produces the human-readable report from the same fields that
// feed the status derivation, so the text and the booleans cannot disagree.
func RenderSummary(result ports.VerificationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Verification Report — %s#%d\n\n", result.ProjectName, result.IssueNumber)
	fmt.Fprintf(&b, "**Verdict: %s** %s\n\n", strings.ToUpper(result.Status), statusEmoji(result.Status))

	if result.BuildSuccess {
		b.WriteString("- Build: ✅ success\n")
	} else {
		b.WriteString("- Build: ❌ failed\n")
	}

	switch {
	case !result.BuildSuccess:
		b.WriteString("- Tests: ⏭️ skipped due to build failure\n")
	case result.TestsPassed:
		b.WriteString("- Tests: ✅ passed\n")
	default:
		b.WriteString("- Tests: ❌ failed\n")
	}

	if result.MocksDetected {
		fmt.Fprintf(&b, "- Placeholders: ⚠️ %d occurrence(s) in %d file(s)\n", result.MockCount, len(result.MockFiles))
	} else {
		b.WriteString("- Placeholders: ✅ none found\n")
	}

	if result.MocksDetected && len(result.MockFiles) > 0 {
		b.WriteString("\nFlagged files:\n")
		for i, file := range result.MockFiles {
			if i == maxListedMockFiles {
				fmt.Fprintf(&b, "- … and %d more\n", len(result.MockFiles)-maxListedMockFiles)
				break
			}
			fmt.Fprintf(&b, "- `%s`\n", file)
		}
	}

	if excerpt := strings.TrimSpace(result.BuildError); excerpt != "" {
		b.WriteString("\n<details><summary>Build output</summary>\n\n```\n")
		b.WriteString(truncate(excerpt, excerptLimit))
		b.WriteString("\n```\n</details>\n")
	}
	if excerpt := strings.TrimSpace(result.TestError); excerpt != "" && result.BuildSuccess {
		b.WriteString("\n<details><summary>Test output</summary>\n\n```\n")
		b.WriteString(truncate(excerpt, excerptLimit))
		b.WriteString("\n```\n</details>\n")
	}

	return b.String()
}

func statusEmoji(status string) string {
	switch verdict.Status(status) {
	case verdict.StatusPassed:
		return "✅"
	case verdict.StatusPartial:
		return "⚠️"
	case verdict.StatusFailed:
		return "❌"
	default:
		return "💥"
	}
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "\n… (truncated)"
}
