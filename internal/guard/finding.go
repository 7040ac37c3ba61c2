// Package guard validates that the active GitHub identity matches what a
// project expects before a commit happens.
package guard

import "errors"

// ErrBlocked is what the CLI boundary maps to a non-zero exit. Warnings
// and passes never produce it.
var ErrBlocked = errors.New("commit blocked by identity validation")

// Severity ranks validation findings. Higher is worse.
type Severity int

const (
	// Pass is a check that succeeded.
	Pass Severity = iota
	// Warn is advisory; the run still succeeds.
	Warn
	// Block fails the run.
	Block
)

// String returns the display name for the severity.
func (s Severity) String() string {
	switch s {
	case Block:
		return "BLOCK"
	case Warn:
		return "WARN"
	default:
		return "PASS"
	}
}

// Step names in pipeline order.
const (
	StepAuth        = "github-auth"
	StepIdentity    = "github-identity"
	StepAssignment  = "project-assignment"
	StepAccount     = "account-match"
	StepGitConfig   = "git-config"
	StepConsistency = "profile-consistency"
)

// Finding is the outcome of one validation step.
type Finding struct {
	// Step identifies the check that produced this finding.
	Step string

	// Severity ranks the finding.
	Severity Severity

	// Message is the one-line outcome.
	Message string

	// Detail lines explain what was observed.
	Detail []string

	// Remediation lines say how to resolve the finding.
	Remediation []string

	// Commands are copy-pasteable fixes, already host-qualified when the
	// relevant profile lives off github.com.
	Commands []string
}

// Result is one full guard evaluation.
type Result struct {
	// ID correlates log lines from one evaluation.
	ID string

	// Project is the project that was validated.
	Project string

	// Login is the GitHub login the validation ran against, if resolved.
	Login string

	// Verdict is the highest severity across findings.
	Verdict Severity

	// Findings holds every step outcome in pipeline order.
	Findings []Finding

	// Notes carries non-fatal store warnings observed while evaluating.
	Notes []string
}

func verdict(findings []Finding) Severity {
	v := Pass
	for _, f := range findings {
		if f.Severity > v {
			v = f.Severity
		}
	}
	return v
}
