package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"verigate/internal/domain/verdict"
	"verigate/internal/errs"
)

const (
	defaultBuildTimeout = 120 * time.Second
	defaultTestTimeout  = 300 * time.Second
)

// Project names become filesystem paths and process arguments, so they are
// restricted to a safe alphabet at load time.
var safeNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*/[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Project is one verifiable workspace: the external repository it mirrors,
// where its checkout lives, and how it is built and tested.
type Project struct {
	Name         string
	Repo         string
	Workspace    string
	SourceDir    string
	BuildCommand []string
	TestCommand  []string
	BuildTimeout time.Duration
	TestTimeout  time.Duration
}

type projectConfig struct {
	Repo                string   `toml:"repo"`
	Workspace           string   `toml:"workspace"`
	SourceDir           string   `toml:"source_dir"`
	BuildCommand        []string `toml:"build_command"`
	TestCommand         []string `toml:"test_command"`
	BuildTimeoutSeconds int      `toml:"build_timeout_seconds"`
	TestTimeoutSeconds  int      `toml:"test_timeout_seconds"`
}

type completionConfig struct {
	Actors   []string `toml:"actors"`
	Keywords []string `toml:"keywords"`
}

type mappingFile struct {
	Completion completionConfig         `toml:"completion"`
	Projects   map[string]projectConfig `toml:"projects"`
}

// Registry is the in-memory view of the project mapping file. Reload swaps
// the whole view atomically, so readers never observe a partial mapping.
type Registry struct {
	path string

	mu         sync.RWMutex
	projects   map[string]Project
	byRepo     map[string]string
	completion verdict.CompletionRules
}

func Load(path string) (*Registry, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		return nil, errors.New("projects file is required")
	}

	r := &Registry{path: resolved}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Path() string {
	return r.path
}

// Reload re-reads the mapping file and replaces the view under a single lock.
func (r *Registry) Reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return errs.Wrap(err, "read projects file")
	}

	var parsed mappingFile
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return errs.Wrap(err, "parse projects file")
	}

	projects := make(map[string]Project, len(parsed.Projects))
	byRepo := make(map[string]string, len(parsed.Projects))
	for name, cfg := range parsed.Projects {
		project, buildErr := buildProject(name, cfg)
		if buildErr != nil {
			return buildErr
		}
		if existing, ok := byRepo[normalizeRepo(project.Repo)]; ok {
			return fmt.Errorf("repository %s is mapped to both %s and %s", project.Repo, existing, name)
		}
		projects[name] = project
		byRepo[normalizeRepo(project.Repo)] = name
	}

	completion := verdict.DefaultCompletionRules()
	if len(parsed.Completion.Actors) > 0 {
		completion.Actors = normalizeList(parsed.Completion.Actors)
	}
	if len(parsed.Completion.Keywords) > 0 {
		completion.Keywords = normalizeList(parsed.Completion.Keywords)
	}

	r.mu.Lock()
	r.projects = projects
	r.byRepo = byRepo
	r.completion = completion
	r.mu.Unlock()
	return nil
}

// ResolveRepo maps an external repository full name ("owner/name") to its
// project. Unknown repositories return ok=false; callers keep the event for
// audit but never dispatch it.
func (r *Registry) ResolveRepo(fullName string) (Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byRepo[normalizeRepo(fullName)]
	if !ok {
		return Project{}, false
	}
	project, ok := r.projects[name]
	return project, ok
}

func (r *Registry) Project(name string) (Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[strings.TrimSpace(name)]
	return project, ok
}

func (r *Registry) ProjectNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.projects))
	for name := range r.projects {
		names = append(names, name)
	}
	return names
}

func (r *Registry) CompletionRules() verdict.CompletionRules {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.completion
}

func buildProject(name string, cfg projectConfig) (Project, error) {
	trimmedName := strings.TrimSpace(name)
	if !safeNamePattern.MatchString(trimmedName) {
		return Project{}, fmt.Errorf("project name %q is not a safe identifier", name)
	}

	repo := strings.TrimSpace(cfg.Repo)
	if !repoPattern.MatchString(repo) {
		return Project{}, fmt.Errorf("projects.%s.repo must be owner/name, got %q", trimmedName, cfg.Repo)
	}

	workspace := strings.TrimSpace(cfg.Workspace)
	if workspace == "" {
		return Project{}, fmt.Errorf("projects.%s.workspace is required", trimmedName)
	}
	workspace = filepath.Clean(workspace)

	sourceDir := strings.TrimSpace(cfg.SourceDir)
	if sourceDir != "" {
		cleaned := filepath.Clean(sourceDir)
		if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
			return Project{}, fmt.Errorf("projects.%s.source_dir must stay inside the workspace", trimmedName)
		}
		sourceDir = cleaned
	}

	buildCommand := normalizeList(cfg.BuildCommand)
	if len(buildCommand) == 0 {
		buildCommand = []string{"go", "build", "./..."}
	}
	testCommand := normalizeList(cfg.TestCommand)
	if len(testCommand) == 0 {
		testCommand = []string{"go", "test", "./..."}
	}

	buildTimeout := defaultBuildTimeout
	if cfg.BuildTimeoutSeconds > 0 {
		buildTimeout = time.Duration(cfg.BuildTimeoutSeconds) * time.Second
	}
	testTimeout := defaultTestTimeout
	if cfg.TestTimeoutSeconds > 0 {
		testTimeout = time.Duration(cfg.TestTimeoutSeconds) * time.Second
	}

	return Project{
		Name:         trimmedName,
		Repo:         repo,
		Workspace:    workspace,
		SourceDir:    sourceDir,
		BuildCommand: buildCommand,
		TestCommand:  testCommand,
		BuildTimeout: buildTimeout,
		TestTimeout:  testTimeout,
	}, nil
}

func normalizeRepo(fullName string) string {
	return strings.ToLower(strings.TrimSpace(fullName))
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
