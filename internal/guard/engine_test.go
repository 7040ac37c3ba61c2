package guard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ghswitch/ghswitch/internal/gitcfg"
	"github.com/ghswitch/ghswitch/internal/profile"
	"github.com/ghswitch/ghswitch/internal/project"
)

type fakeGitHub struct {
	authed bool
	login  string
}

func (f *fakeGitHub) IsAuthenticated() bool { return f.authed }
func (f *fakeGitHub) CurrentLogin() string  { return f.login }

type fakeGit struct {
	local  gitcfg.Identity
	global gitcfg.Identity
}

func (f *fakeGit) Identity(s gitcfg.Scope) gitcfg.Identity {
	if s == gitcfg.ScopeLocal {
		return f.local
	}
	return f.global
}
func (f *fakeGit) SetIdentity(gitcfg.Scope, gitcfg.Identity) error { return nil }
func (f *fakeGit) SSHCommand(gitcfg.Scope) string                  { return "" }
func (f *fakeGit) SetSSHCommand(gitcfg.Scope, string) error        { return nil }
func (f *fakeGit) Signing(gitcfg.Scope) (string, bool)             { return "", false }
func (f *fakeGit) SetSigning(gitcfg.Scope, string, bool) error     { return nil }

// newTestEngine builds an engine over temp stores seeded with raw file
// content, so fixtures can include lines Create would reject.
func newTestEngine(t *testing.T, profileLines, assignmentLines string, hub *fakeGitHub, git *fakeGit) *Engine {
	t.Helper()
	dir := t.TempDir()
	profilesPath := filepath.Join(dir, "profiles")
	projectsPath := filepath.Join(dir, "projects")
	if profileLines != "" {
		if err := os.WriteFile(profilesPath, []byte(profileLines), 0o600); err != nil {
			t.Fatalf("writing profiles: %v", err)
		}
	}
	if assignmentLines != "" {
		if err := os.WriteFile(projectsPath, []byte(assignmentLines), 0o600); err != nil {
			t.Fatalf("writing assignments: %v", err)
		}
	}
	return &Engine{
		Profiles:    profile.NewStore(profilesPath, nil),
		Assignments: project.NewAssignments(projectsPath),
		GitHub:      hub,
		Git:         git,
	}
}

func findByStep(res *Result, step string) (Finding, bool) {
	for _, f := range res.Findings {
		if f.Step == step {
			return f, true
		}
	}
	return Finding{}, false
}

const (
	aliceLine         = "alice|v5|Alice Smith|alice@example.com||false||github.com\n"
	aliceWorkLine     = "alice-work|v5|Alice at Work|alice@work.example.com||false||github.com\n"
	alicePersonalLine = "alice-personal|v5|Alice|alice@personal.example.com||false||github.com\n"
	corpLine          = "corp|v5|Corp Alice|alice@corp.example.com||false||github.corp.example.com\n"
)

func TestEngine_AllChecksPass(t *testing.T) {
	e := newTestEngine(t,
		aliceLine,
		"acme-api=alice\n",
		&fakeGitHub{authed: true, login: "alice"},
		&fakeGit{local: gitcfg.Identity{Name: "Alice Smith", Email: "alice@example.com"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Verdict != Pass {
		t.Errorf("verdict = %v, want Pass", res.Verdict)
	}
	if len(res.Findings) != 6 {
		t.Fatalf("findings = %d, want 6", len(res.Findings))
	}
	for _, f := range res.Findings {
		if f.Severity != Pass {
			t.Errorf("%s severity = %v, want Pass", f.Step, f.Severity)
		}
	}
	if res.Login != "alice" {
		t.Errorf("login = %q, want alice", res.Login)
	}
	if res.ID == "" {
		t.Error("result has no ID")
	}
}

func TestEngine_UnauthenticatedStopsEarly(t *testing.T) {
	e := newTestEngine(t, aliceLine, "acme-api=alice\n",
		&fakeGitHub{authed: false},
		&fakeGit{},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Verdict != Warn {
		t.Errorf("verdict = %v, want Warn", res.Verdict)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(res.Findings))
	}
	f := res.Findings[0]
	if f.Step != StepAuth || f.Severity != Warn {
		t.Errorf("finding = %s/%v, want %s/Warn", f.Step, f.Severity, StepAuth)
	}
	if f.Message != "GitHub CLI not authenticated — validation skipped" {
		t.Errorf("message = %q", f.Message)
	}
	if len(f.Commands) != 1 || f.Commands[0] != "gh auth login" {
		t.Errorf("commands = %v, want [gh auth login]", f.Commands)
	}
}

func TestEngine_UnknownLoginStopsEarly(t *testing.T) {
	e := newTestEngine(t, aliceLine, "acme-api=alice\n",
		&fakeGitHub{authed: true, login: ""},
		&fakeGit{},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Verdict != Warn {
		t.Errorf("verdict = %v, want Warn", res.Verdict)
	}
	if len(res.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(res.Findings))
	}
	f := res.Findings[1]
	if f.Step != StepIdentity || f.Severity != Warn {
		t.Errorf("finding = %s/%v, want %s/Warn", f.Step, f.Severity, StepIdentity)
	}
	if f.Message != "Could not determine current GitHub user — validation skipped" {
		t.Errorf("message = %q", f.Message)
	}
}

func TestEngine_NoAssignmentWarnsAndContinues(t *testing.T) {
	e := newTestEngine(t, aliceLine, "",
		&fakeGitHub{authed: true, login: "alice"},
		&fakeGit{local: gitcfg.Identity{Name: "Alice Smith", Email: "alice@example.com"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Verdict != Warn {
		t.Errorf("verdict = %v, want Warn", res.Verdict)
	}

	f, ok := findByStep(res, StepAssignment)
	if !ok {
		t.Fatal("no assignment finding")
	}
	if f.Severity != Warn {
		t.Errorf("assignment severity = %v, want Warn", f.Severity)
	}
	if len(f.Commands) != 1 || f.Commands[0] != "ghs assign acme-api alice" {
		t.Errorf("commands = %v", f.Commands)
	}

	// the account comparison is skipped, but git config checks still run
	if _, ok := findByStep(res, StepAccount); ok {
		t.Error("account finding present without an assignment")
	}
	g, ok := findByStep(res, StepGitConfig)
	if !ok {
		t.Fatal("git config check did not run")
	}
	if g.Severity != Pass {
		t.Errorf("git config severity = %v, want Pass", g.Severity)
	}
}

func TestEngine_AccountMismatchBlocks(t *testing.T) {
	e := newTestEngine(t,
		aliceWorkLine+alicePersonalLine,
		"acme-api=alice-work\n",
		&fakeGitHub{authed: true, login: "alice-personal"},
		&fakeGit{local: gitcfg.Identity{Name: "Alice", Email: "alice@personal.example.com"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Verdict != Block {
		t.Errorf("verdict = %v, want Block", res.Verdict)
	}

	f, ok := findByStep(res, StepAccount)
	if !ok {
		t.Fatal("no account finding")
	}
	if f.Severity != Block {
		t.Errorf("severity = %v, want Block", f.Severity)
	}
	if want := "Account mismatch: alice-personal is signed in, but this project is assigned to alice-work"; f.Message != want {
		t.Errorf("message = %q, want %q", f.Message, want)
	}
	detail := strings.Join(f.Detail, "\n")
	if !strings.Contains(detail, "alice-personal") || !strings.Contains(detail, "alice-work") {
		t.Errorf("detail missing logins:\n%s", detail)
	}
	want := []string{
		"ghs switch alice-work",
		"gh auth switch --user alice-work",
		"ghs assign acme-api alice-personal",
	}
	if len(f.Commands) != len(want) {
		t.Fatalf("commands = %v, want %v", f.Commands, want)
	}
	for i := range want {
		if f.Commands[i] != want[i] {
			t.Errorf("commands[%d] = %q, want %q", i, f.Commands[i], want[i])
		}
	}

	// a mismatch never stops the later checks
	if _, ok := findByStep(res, StepGitConfig); !ok {
		t.Error("git config check did not run after the mismatch")
	}
}

func TestEngine_IncompleteGitConfigBlocks(t *testing.T) {
	e := newTestEngine(t, aliceLine, "acme-api=alice\n",
		&fakeGitHub{authed: true, login: "alice"},
		&fakeGit{local: gitcfg.Identity{Name: "Alice Smith"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Verdict != Block {
		t.Errorf("verdict = %v, want Block", res.Verdict)
	}

	f, ok := findByStep(res, StepGitConfig)
	if !ok {
		t.Fatal("no git config finding")
	}
	if f.Severity != Block || f.Message != "Git config incomplete" {
		t.Errorf("finding = %v %q", f.Severity, f.Message)
	}
	if len(f.Detail) != 1 || f.Detail[0] != "Missing: user.email" {
		t.Errorf("detail = %v, want [Missing: user.email]", f.Detail)
	}
	if len(f.Commands) < 2 || f.Commands[0] != "ghs switch alice" {
		t.Errorf("commands = %v", f.Commands)
	}
	if f.Commands[1] != "git config user.email <value>" {
		t.Errorf("commands[1] = %q", f.Commands[1])
	}
}

func TestEngine_GlobalIdentityFallback(t *testing.T) {
	e := newTestEngine(t, aliceLine, "acme-api=alice\n",
		&fakeGitHub{authed: true, login: "alice"},
		&fakeGit{global: gitcfg.Identity{Name: "Alice Smith", Email: "alice@example.com"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	f, ok := findByStep(res, StepGitConfig)
	if !ok {
		t.Fatal("no git config finding")
	}
	if f.Severity != Pass {
		t.Errorf("git config severity = %v, want Pass", f.Severity)
	}
}

func TestEngine_IdentityDriftWarns(t *testing.T) {
	e := newTestEngine(t, aliceLine, "acme-api=alice\n",
		&fakeGitHub{authed: true, login: "alice"},
		&fakeGit{local: gitcfg.Identity{Name: "Wrong Name", Email: "alice@example.com"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Verdict != Warn {
		t.Errorf("verdict = %v, want Warn", res.Verdict)
	}

	f, ok := findByStep(res, StepConsistency)
	if !ok {
		t.Fatal("no consistency finding")
	}
	if f.Severity != Warn {
		t.Errorf("consistency severity = %v, want Warn", f.Severity)
	}
	if len(f.Detail) != 1 || !strings.Contains(f.Detail[0], `"Wrong Name"`) {
		t.Errorf("detail = %v", f.Detail)
	}
	if len(f.Commands) != 1 || f.Commands[0] != "ghs switch alice" {
		t.Errorf("commands = %v", f.Commands)
	}
}

func TestEngine_HostQualifiedCommands(t *testing.T) {
	e := newTestEngine(t, corpLine, "acme-api=corp\n",
		&fakeGitHub{authed: false},
		&fakeGit{},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	f := res.Findings[0]
	want := "gh auth login --hostname github.corp.example.com"
	if len(f.Commands) != 1 || f.Commands[0] != want {
		t.Errorf("commands = %v, want [%s]", f.Commands, want)
	}
}

func TestEngine_HostQualifiedSwitchCommand(t *testing.T) {
	e := newTestEngine(t, corpLine+aliceLine, "acme-api=corp\n",
		&fakeGitHub{authed: true, login: "alice"},
		&fakeGit{local: gitcfg.Identity{Name: "Alice Smith", Email: "alice@example.com"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	f, ok := findByStep(res, StepAccount)
	if !ok {
		t.Fatal("no account finding")
	}
	want := "gh auth switch --user corp --hostname github.corp.example.com"
	if len(f.Commands) < 2 || f.Commands[1] != want {
		t.Errorf("commands = %v, want commands[1] = %q", f.Commands, want)
	}
}

func TestEngine_StaleAssignmentStillBlocks(t *testing.T) {
	e := newTestEngine(t, aliceLine, "acme-api=ghost-user\n",
		&fakeGitHub{authed: true, login: "alice"},
		&fakeGit{local: gitcfg.Identity{Name: "Alice Smith", Email: "alice@example.com"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Verdict != Block {
		t.Errorf("verdict = %v, want Block", res.Verdict)
	}

	f, ok := findByStep(res, StepAccount)
	if !ok {
		t.Fatal("no account finding")
	}
	detail := strings.Join(f.Detail, "\n")
	if !strings.Contains(detail, "stale") {
		t.Errorf("detail does not flag the stale assignment:\n%s", detail)
	}
}

func TestEngine_ParseWarningsSurfaceAsNotes(t *testing.T) {
	e := newTestEngine(t, aliceLine+"garbage\n", "acme-api=alice\n",
		&fakeGitHub{authed: true, login: "alice"},
		&fakeGit{local: gitcfg.Identity{Name: "Alice Smith", Email: "alice@example.com"}},
	)

	res, err := e.Evaluate("acme-api")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if len(res.Notes) != 1 {
		t.Fatalf("notes = %v, want one", res.Notes)
	}
	if !strings.HasPrefix(res.Notes[0], "profiles: line 2:") {
		t.Errorf("note = %q", res.Notes[0])
	}
}

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{Pass, "PASS"},
		{Warn, "WARN"},
		{Block, "BLOCK"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}
