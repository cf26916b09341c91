package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"verigate/internal/bootstrap/config"
	"verigate/internal/bootstrap/logging"
	"verigate/internal/domain/verdict"
	"verigate/internal/errs"
	"verigate/internal/ports"
	"verigate/internal/registry"
)

// Publisher posts a verdict back to the originating issue: one comment with
// the rendered report, plus at most one verification label.
type Publisher struct {
	client   *gh.Client
	registry *registry.Registry
}

// NewPublisher builds a client from whichever auth mode the config carries:
// a GitHub App installation when AppID is set, otherwise a personal token.
func NewPublisher(cfg config.GitHubConfig, reg *registry.Registry) (*Publisher, error) {
	if reg == nil {
		return nil, errors.New("registry is required")
	}

	var httpClient *http.Client
	switch {
	case cfg.AppID > 0:
		if cfg.InstallationID <= 0 || strings.TrimSpace(cfg.PrivateKeyFile) == "" {
			return nil, errors.New("github app auth requires installation_id and private_key_file")
		}
		transport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyFile)
		if err != nil {
			return nil, errs.Wrap(err, "load github app key")
		}
		if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
			transport.BaseURL = strings.TrimSuffix(baseURL, "/")
		}
		httpClient = &http.Client{Transport: transport}
	case strings.TrimSpace(cfg.Token) != "":
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(cfg.Token)})
		httpClient = oauth2.NewClient(context.Background(), source)
	default:
		return nil, errors.New("github auth requires a token or app credentials")
	}

	client := gh.NewClient(httpClient)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		enterprise, err := client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, errs.Wrap(err, "configure enterprise base url")
		}
		client = enterprise
	}

	return &Publisher{client: client, registry: reg}, nil
}

func (p *Publisher) PublishVerdict(ctx context.Context, result ports.VerificationResult) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	project, ok := p.registry.Project(result.ProjectName)
	if !ok {
		return fmt.Errorf("unknown project %q", result.ProjectName)
	}
	owner, repo, err := splitRepo(project.Repo)
	if err != nil {
		return err
	}
	issue := int(result.IssueNumber)

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "github_publisher"),
		slog.String("repo", project.Repo),
		slog.Int("issue", issue),
	)

	comment := &gh.IssueComment{Body: gh.Ptr(result.Summary)}
	if _, _, err := p.client.Issues.CreateComment(ctx, owner, repo, issue, comment); err != nil {
		return errs.Wrap(err, "create issue comment")
	}

	label, hasLabel := verdict.Label(verdict.Status(result.Status))
	if !hasLabel {
		logging.Info(logCtx, "published verdict without label", slog.String("status", result.Status))
		return nil
	}

	// Stale labels from earlier runs come off first so the issue carries at
	// most one verdict label. Removal is best effort; a 404 just means the
	// label was never there.
	for _, stale := range verdict.AllLabels() {
		if stale == label {
			continue
		}
		if resp, err := p.client.Issues.RemoveLabelForIssue(ctx, owner, repo, issue, stale); err != nil {
			if resp == nil || resp.StatusCode != http.StatusNotFound {
				logging.Warn(logCtx, "removing stale label failed",
					slog.String("label", stale),
					slog.Any("err", errs.Loggable(err)),
				)
			}
		}
	}

	if _, _, err := p.client.Issues.AddLabelsToIssue(ctx, owner, repo, issue, []string{label}); err != nil {
		return errs.Wrap(err, "add verdict label")
	}

	logging.Info(logCtx, "published verdict", slog.String("status", result.Status), slog.String("label", label))
	return nil
}

func splitRepo(fullName string) (string, string, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("repository %q is not owner/name", fullName)
	}
	return owner, repo, nil
}
