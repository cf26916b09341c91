package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/domain/verdict"
	"verigate/internal/errs"
	"verigate/internal/ports"
	"verigate/internal/registry"
)

const testsSkippedNote = "skipped due to build failure"

// Service runs the three-stage verification pipeline against a project
// workspace and persists exactly one immutable result row per invocation.
type Service struct {
	registry *registry.Registry
	results  ports.ResultRepository
	executor CommandExecutor
	scanner  SourceScanner
}

func NewService(reg *registry.Registry, results ports.ResultRepository, executor CommandExecutor, scanner SourceScanner) *Service {
	return &Service{
		registry: reg,
		results:  results,
		executor: executor,
		scanner:  scanner,
	}
}

type VerifyInput struct {
	ProjectName string
	IssueNumber int64
}

func (s *Service) VerifyIssue(ctx context.Context, input VerifyInput) (ports.VerificationResult, error) {
	if ctx == nil {
		return ports.VerificationResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.VerificationResult{}, errs.Wrap(err, "check context")
	}
	if s.registry == nil || s.results == nil || s.executor == nil || s.scanner == nil {
		return ports.VerificationResult{}, errors.New("verify service is not fully configured")
	}

	projectName := strings.TrimSpace(input.ProjectName)
	project, ok := s.registry.Project(projectName)
	if !ok {
		return ports.VerificationResult{}, fmt.Errorf("unknown project %q", input.ProjectName)
	}
	if input.IssueNumber <= 0 {
		return ports.VerificationResult{}, fmt.Errorf("issue number must be positive, got %d", input.IssueNumber)
	}
	if info, statErr := os.Stat(project.Workspace); statErr != nil || !info.IsDir() {
		return ports.VerificationResult{}, fmt.Errorf("workspace %q is not a directory", project.Workspace)
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "verify"),
		slog.String("project", project.Name),
		slog.Int64("issue", input.IssueNumber),
	)

	result := ports.VerificationResult{
		ResultID:    uuid.NewString(),
		ProjectName: project.Name,
		IssueNumber: input.IssueNumber,
	}
	var stageErr error

	// Stage 1: build.
	buildRes, err := s.executor.Run(ctx, project.BuildCommand[0], project.BuildCommand[1:], project.Workspace, project.BuildTimeout)
	if err != nil {
		stageErr = errs.Wrap(err, "run build command")
		result.BuildError = stageErr.Error()
	} else {
		result.BuildOutput = buildRes.Stdout
		result.BuildError = buildRes.Stderr
		result.BuildSuccess = !buildRes.TimedOut && buildRes.ExitCode == 0
		if buildRes.TimedOut {
			result.BuildError = appendNote(result.BuildError, fmt.Sprintf("build timed out after %s", project.BuildTimeout))
		}
	}

	// Stage 2: tests, only on a successful build.
	if result.BuildSuccess {
		testRes, err := s.executor.Run(ctx, project.TestCommand[0], project.TestCommand[1:], project.Workspace, project.TestTimeout)
		if err != nil {
			stageErr = errs.Wrap(err, "run test command")
			result.TestError = stageErr.Error()
		} else {
			result.TestOutput = testRes.Stdout
			result.TestError = testRes.Stderr
			result.TestsPassed = !testRes.TimedOut && testRes.ExitCode == 0
			if testRes.TimedOut {
				result.TestError = appendNote(result.TestError, fmt.Sprintf("tests timed out after %s", project.TestTimeout))
			}
		}
	} else {
		result.TestError = testsSkippedNote
	}

	// Stage 3: placeholder scan, always.
	scanRoot := project.Workspace
	if project.SourceDir != "" {
		scanRoot = filepath.Join(project.Workspace, project.SourceDir)
	}
	scanRes, err := s.scanner.Scan(scanRoot, DefaultMarkers, DefaultExcludeDirs)
	if err != nil {
		if stageErr == nil {
			stageErr = errs.Wrap(err, "scan for placeholders")
		}
		logging.Error(logCtx, "placeholder scan failed", slog.Any("err", errs.Loggable(err)))
	} else {
		result.MockFiles = scanRes.Files
		result.MockCount = scanRes.Count
		result.MocksDetected = len(scanRes.Files) > 0
	}

	if stageErr != nil {
		// An abnormal stage abort is captured into the row, not thrown: the
		// processor must never lose a verdict to one event's failure.
		result.Status = string(verdict.StatusError)
	} else {
		result.Status = string(verdict.Derive(result.BuildSuccess, result.TestsPassed, result.MocksDetected))
	}

	result.Summary = RenderSummary(result)
	result.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	created, err := s.results.CreateResult(ctx, result)
	if err != nil {
		return ports.VerificationResult{}, errs.Wrap(err, "persist verification result")
	}

	logging.Info(logCtx, "verification completed",
		slog.String("result_id", created.ResultID),
		slog.String("status", created.Status),
		slog.Bool("build_success", created.BuildSuccess),
		slog.Bool("tests_passed", created.TestsPassed),
		slog.Bool("mocks_detected", created.MocksDetected),
	)
	return created, nil
}

func appendNote(existing string, note string) string {
	trimmed := strings.TrimSpace(existing)
	if trimmed == "" {
		return note
	}
	return trimmed + "\n" + note
}
