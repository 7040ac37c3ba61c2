package guard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ghswitch/ghswitch/internal/gh"
	"github.com/ghswitch/ghswitch/internal/gitcfg"
	"github.com/ghswitch/ghswitch/internal/profile"
	"github.com/ghswitch/ghswitch/internal/project"
)

// Engine runs the identity validation pipeline for one project.
//
// Checks run in a fixed order. Missing authentication or an unresolvable
// login ends the run early with a warning; every other outcome lets the
// remaining checks run so one report covers everything that needs fixing.
type Engine struct {
	Profiles    *profile.Store
	Assignments *project.Assignments
	GitHub      gh.IdentityProvider
	Git         gitcfg.Accessor

	// DefaultHost is assumed when no profile narrows the host.
	DefaultHost string
}

// evaluation carries resolved state across steps.
type evaluation struct {
	project         string
	login           string
	assigned        string
	hasAssignment   bool
	snap            *profile.Snapshot
	loginProfile    *profile.Profile
	assignedProfile *profile.Profile
	host            string
	identity        gitcfg.Identity
	findings        []Finding
	notes           []string
}

func (ev *evaluation) add(f Finding) {
	ev.findings = append(ev.findings, f)
}

// relevantProfile is the profile remediation should point at: the assigned
// account's when one exists, otherwise the current login's.
func (ev *evaluation) relevantProfile() *profile.Profile {
	if ev.assignedProfile != nil {
		return ev.assignedProfile
	}
	return ev.loginProfile
}

// Evaluate runs every step against projectName and aggregates a verdict.
// The returned error covers only infrastructure failures; validation
// outcomes, including blocks, live in the Result.
func (e *Engine) Evaluate(projectName string) (*Result, error) {
	ev := &evaluation{project: projectName, host: e.fallbackHost()}

	snap, err := e.Profiles.Load()
	if err != nil {
		return nil, err
	}
	ev.snap = snap
	for _, w := range snap.Warnings {
		ev.notes = append(ev.notes, "profiles: "+w.String())
	}

	assigned, err := e.Assignments.Lookup(projectName)
	switch {
	case err == nil:
		ev.assigned = assigned
		ev.hasAssignment = true
	case errors.Is(err, project.ErrNotAssigned):
	default:
		return nil, err
	}

	// The assigned account's profile names the host this project works
	// against, which host-qualifies every remediation command, including
	// the early authentication warnings.
	if p, ok := snap.Find(ev.assigned); ok {
		ev.assignedProfile = p
		ev.host = p.Host
	}

	steps := []func(*evaluation) bool{
		e.checkAuth,
		e.checkIdentity,
		e.checkAssignment,
		e.checkAccountMatch,
		e.checkGitConfig,
		e.checkConsistency,
	}
	for _, step := range steps {
		if !step(ev) {
			break
		}
	}

	res := &Result{
		ID:       uuid.NewString(),
		Project:  projectName,
		Login:    ev.login,
		Verdict:  verdict(ev.findings),
		Findings: ev.findings,
		Notes:    ev.notes,
	}
	log.Debug().
		Str("eval", res.ID).
		Str("project", res.Project).
		Str("login", res.Login).
		Stringer("verdict", res.Verdict).
		Int("findings", len(res.Findings)).
		Msg("guard evaluation complete")
	return res, nil
}

// checkAuth stops the pipeline when no GitHub session exists. Working
// logged out or offline is a skip, never a failure.
func (e *Engine) checkAuth(ev *evaluation) bool {
	if !e.GitHub.IsAuthenticated() {
		ev.add(Finding{
			Step:        StepAuth,
			Severity:    Warn,
			Message:     "GitHub CLI not authenticated — validation skipped",
			Remediation: []string{"Authenticate, then re-run the validation."},
			Commands:    []string{e.authCommand(ev)},
		})
		return false
	}
	ev.add(Finding{Step: StepAuth, Severity: Pass, Message: "GitHub CLI authenticated"})
	return true
}

// checkIdentity resolves the current login, stopping the pipeline when the
// session does not name one.
func (e *Engine) checkIdentity(ev *evaluation) bool {
	ev.login = e.GitHub.CurrentLogin()
	if ev.login == "" {
		ev.add(Finding{
			Step:        StepIdentity,
			Severity:    Warn,
			Message:     "Could not determine current GitHub user — validation skipped",
			Remediation: []string{"Re-authenticate so a login can be resolved."},
			Commands:    []string{e.authCommand(ev)},
		})
		return false
	}

	if p, ok := ev.snap.Find(ev.login); ok {
		ev.loginProfile = p
		if ev.assignedProfile == nil {
			ev.host = p.Host
		}
	}
	ev.add(Finding{
		Step:     StepIdentity,
		Severity: Pass,
		Message:  fmt.Sprintf("Authenticated as %s", ev.login),
	})
	return true
}

// checkAssignment warns when the project is not pinned to an account. The
// account comparison is skipped, but the git config checks still run.
func (e *Engine) checkAssignment(ev *evaluation) bool {
	if !ev.hasAssignment {
		ev.add(Finding{
			Step:        StepAssignment,
			Severity:    Warn,
			Message:     "No project assignment found",
			Detail:      []string{fmt.Sprintf("Project %q is not pinned to an account.", ev.project)},
			Remediation: []string{"Pin the project to silence this warning."},
			Commands:    []string{fmt.Sprintf("ghs assign %s %s", ev.project, ev.login)},
		})
		return true
	}
	ev.add(Finding{
		Step:     StepAssignment,
		Severity: Pass,
		Message:  fmt.Sprintf("Project assigned to %s", ev.assigned),
	})
	return true
}

// checkAccountMatch blocks when the login differs from the assignment. The
// pipeline keeps going so the report also covers git config state.
func (e *Engine) checkAccountMatch(ev *evaluation) bool {
	if !ev.hasAssignment {
		return true
	}
	if ev.login == ev.assigned {
		ev.add(Finding{
			Step:     StepAccount,
			Severity: Pass,
			Message:  fmt.Sprintf("Account matches assignment (%s)", ev.login),
		})
		return true
	}

	f := Finding{
		Step:     StepAccount,
		Severity: Block,
		Message:  fmt.Sprintf("Account mismatch: %s is signed in, but this project is assigned to %s", ev.login, ev.assigned),
		Detail: []string{
			fmt.Sprintf("Current GitHub user:  %s", ev.login),
			fmt.Sprintf("Assigned to project:  %s", ev.assigned),
		},
		Remediation: []string{
			fmt.Sprintf("Switch to %s before committing, or reassign the project to %s.", ev.assigned, ev.login),
		},
		Commands: []string{
			fmt.Sprintf("ghs switch %s", ev.assigned),
			e.authSwitchCommand(ev),
			fmt.Sprintf("ghs assign %s %s", ev.project, ev.login),
		},
	}
	if ev.assignedProfile == nil {
		f.Detail = append(f.Detail, fmt.Sprintf("No profile exists for %q; the assignment may be stale.", ev.assigned))
	}
	ev.add(f)
	return true
}

// checkGitConfig blocks when git would refuse or misattribute a commit:
// name or email missing from both local and global scope.
func (e *Engine) checkGitConfig(ev *evaluation) bool {
	ev.identity = gitcfg.ResolvedIdentity(e.Git)
	if ev.identity.Name != "" && ev.identity.Email != "" {
		ev.add(Finding{
			Step:     StepGitConfig,
			Severity: Pass,
			Message:  fmt.Sprintf("Git identity set (%s <%s>)", ev.identity.Name, ev.identity.Email),
		})
		return true
	}

	var missing []string
	if ev.identity.Name == "" {
		missing = append(missing, "user.name")
	}
	if ev.identity.Email == "" {
		missing = append(missing, "user.email")
	}

	var cmds []string
	if p := ev.relevantProfile(); p != nil {
		cmds = append(cmds, fmt.Sprintf("ghs switch %s", p.Username))
	}
	for _, key := range missing {
		cmds = append(cmds, fmt.Sprintf("git config %s <value>", key))
	}

	ev.add(Finding{
		Step:        StepGitConfig,
		Severity:    Block,
		Message:     "Git config incomplete",
		Detail:      []string{"Missing: " + strings.Join(missing, ", ")},
		Remediation: []string{"Apply a profile, or set the missing fields by hand."},
		Commands:    cmds,
	})
	return true
}

// checkConsistency compares the stored profile against the live git
// identity. Drift is advisory only; it never blocks.
func (e *Engine) checkConsistency(ev *evaluation) bool {
	p := ev.loginProfile
	if p == nil {
		return true
	}

	var drift []string
	if ev.identity.Name != "" && ev.identity.Name != p.Name {
		drift = append(drift, fmt.Sprintf("user.name is %q, profile has %q", ev.identity.Name, p.Name))
	}
	if ev.identity.Email != "" && ev.identity.Email != p.Email {
		drift = append(drift, fmt.Sprintf("user.email is %q, profile has %q", ev.identity.Email, p.Email))
	}
	if len(drift) == 0 {
		ev.add(Finding{Step: StepConsistency, Severity: Pass, Message: "Git identity matches profile"})
		return true
	}

	ev.add(Finding{
		Step:        StepConsistency,
		Severity:    Warn,
		Message:     "Git identity differs from profile",
		Detail:      drift,
		Remediation: []string{"Re-apply the profile to sync git config."},
		Commands:    []string{fmt.Sprintf("ghs switch %s", p.Username)},
	})
	return true
}

func (e *Engine) fallbackHost() string {
	if e.DefaultHost != "" {
		return e.DefaultHost
	}
	return profile.DefaultHost
}

// authCommand is host-qualified whenever the relevant profile lives off
// github.com, since gh targets github.com unless told otherwise.
func (e *Engine) authCommand(ev *evaluation) string {
	if ev.host != "" && ev.host != profile.DefaultHost {
		return "gh auth login --hostname " + ev.host
	}
	return "gh auth login"
}

func (e *Engine) authSwitchCommand(ev *evaluation) string {
	cmd := "gh auth switch --user " + ev.assigned
	if ev.host != "" && ev.host != profile.DefaultHost {
		cmd += " --hostname " + ev.host
	}
	return cmd
}
