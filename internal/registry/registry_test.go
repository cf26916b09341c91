package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleMapping = `
[completion]
actors = ["agent[bot]"]
keywords = ["implementation complete"]

[projects.billing]
repo = "acme/billing-service"
workspace = "/srv/workspaces/billing"
source_dir = "src"
build_command = ["npm", "run", "build"]
test_command = ["npm", "test"]
build_timeout_seconds = 60
test_timeout_seconds = 90

[projects.gateway]
repo = "acme/gateway"
workspace = "/srv/workspaces/gateway"
`

func writeMapping(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "projects.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write projects file: %v", err)
	}
	return path
}

func TestLoadResolvesRepoAndAppliesDefaults(t *testing.T) {
	reg, err := Load(writeMapping(t, sampleMapping))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	billing, ok := reg.ResolveRepo("acme/billing-service")
	if !ok {
		t.Fatalf("ResolveRepo(acme/billing-service) not found")
	}
	if billing.Name != "billing" {
		t.Fatalf("project name = %q, want billing", billing.Name)
	}
	if billing.BuildTimeout != 60*time.Second || billing.TestTimeout != 90*time.Second {
		t.Fatalf("timeouts = %v/%v, want 60s/90s", billing.BuildTimeout, billing.TestTimeout)
	}
	if billing.SourceDir != "src" {
		t.Fatalf("source dir = %q, want src", billing.SourceDir)
	}

	gateway, ok := reg.Project("gateway")
	if !ok {
		t.Fatalf("Project(gateway) not found")
	}
	if gateway.BuildTimeout != defaultBuildTimeout || gateway.TestTimeout != defaultTestTimeout {
		t.Fatalf("default timeouts = %v/%v", gateway.BuildTimeout, gateway.TestTimeout)
	}
	if len(gateway.BuildCommand) == 0 || gateway.BuildCommand[0] != "go" {
		t.Fatalf("default build command = %v", gateway.BuildCommand)
	}

	if _, ok := reg.ResolveRepo("acme/unknown"); ok {
		t.Fatalf("unknown repo must not resolve")
	}
}

func TestResolveRepoIsCaseInsensitive(t *testing.T) {
	reg, err := Load(writeMapping(t, sampleMapping))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, ok := reg.ResolveRepo("Acme/Billing-Service"); !ok {
		t.Fatalf("repo resolution must ignore case")
	}
}

func TestCompletionRulesOverrideFromFile(t *testing.T) {
	reg, err := Load(writeMapping(t, sampleMapping))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	rules := reg.CompletionRules()
	if len(rules.Actors) != 1 || rules.Actors[0] != "agent[bot]" {
		t.Fatalf("actors = %v", rules.Actors)
	}
	if !rules.IsCompletionSignal("agent[bot]", "implementation complete") {
		t.Fatalf("expected configured rules to classify completion")
	}
}

func TestLoadRejectsUnsafeNames(t *testing.T) {
	bad := `
[projects."../escape"]
repo = "acme/escape"
workspace = "/srv/workspaces/escape"
`
	if _, err := Load(writeMapping(t, bad)); err == nil {
		t.Fatalf("Load() expected error for unsafe project name")
	}
}

func TestLoadRejectsDuplicateRepoMapping(t *testing.T) {
	bad := `
[projects.one]
repo = "acme/same"
workspace = "/srv/one"

[projects.two]
repo = "acme/same"
workspace = "/srv/two"
`
	if _, err := Load(writeMapping(t, bad)); err == nil {
		t.Fatalf("Load() expected error for duplicate repo mapping")
	}
}

func TestLoadRejectsEscapingSourceDir(t *testing.T) {
	bad := `
[projects.one]
repo = "acme/one"
workspace = "/srv/one"
source_dir = "../outside"
`
	if _, err := Load(writeMapping(t, bad)); err == nil {
		t.Fatalf("Load() expected error for escaping source_dir")
	}
}

func TestReloadSwapsMappingAtomically(t *testing.T) {
	path := writeMapping(t, sampleMapping)
	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	updated := `
[projects.billing]
repo = "acme/billing-v2"
workspace = "/srv/workspaces/billing"
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite projects file: %v", err)
	}
	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if _, ok := reg.ResolveRepo("acme/billing-service"); ok {
		t.Fatalf("stale repo mapping survived reload")
	}
	if _, ok := reg.ResolveRepo("acme/billing-v2"); !ok {
		t.Fatalf("new repo mapping missing after reload")
	}
	if _, ok := reg.Project("gateway"); ok {
		t.Fatalf("removed project survived reload")
	}
}

func TestReloadKeepsPreviousViewOnParseError(t *testing.T) {
	path := writeMapping(t, sampleMapping)
	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatalf("rewrite projects file: %v", err)
	}
	if err := reg.Reload(); err == nil {
		t.Fatalf("Reload() expected parse error")
	}

	if _, ok := reg.ResolveRepo("acme/billing-service"); !ok {
		t.Fatalf("previous mapping must survive a failed reload")
	}
}
