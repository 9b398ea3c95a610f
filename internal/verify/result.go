// Package verify implements the cross-build dependency consistency
// checks: unexpanded macro detection, explicit shared-library
// requirement verification, epoch prefix verification and the
// before/after dependency diff.
package verify

import (
	"github.com/google/uuid"
)

// Severity grades a finding. Verify and Bad findings fail the run.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityInfo
	SeverityVerify
	SeverityBad
)

var severityNames = map[Severity]string{
	SeverityOK:     "OK",
	SeverityInfo:   "INFO",
	SeverityVerify: "VERIFY",
	SeverityBad:    "BAD",
}

func (s Severity) String() string { return severityNames[s] }

// MarshalText lets severities render as their names in JSON reports.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Waiver states who may waive a finding.
type Waiver int

const (
	NotWaivable Waiver = iota
	WaivableByAnyone
)

var waiverNames = map[Waiver]string{
	NotWaivable:      "not-waivable",
	WaivableByAnyone: "anyone",
}

func (w Waiver) String() string { return waiverNames[w] }

// MarshalText lets waiver values render as their names in JSON reports.
func (w Waiver) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

// Remedy identifies the documented fix for a class of finding.
type Remedy string

const (
	RemedyNone              Remedy = ""
	RemedyMacros            Remedy = "rpmdeps-macros"
	RemedyExplicitDep       Remedy = "rpmdeps-explicit"
	RemedyExplicitDepEpoch  Remedy = "rpmdeps-explicit-epoch"
	RemedyMultipleProviders Remedy = "rpmdeps-multiple"
	RemedyEpochPrefix       Remedy = "rpmdeps-epoch"
	RemedyGained            Remedy = "rpmdeps-gained"
	RemedyChanged           Remedy = "rpmdeps-changed"
	RemedyLost              Remedy = "rpmdeps-lost"
)

// Finding is one reported observation. Noun is a short grouping
// template carrying literal ${FILE} and ${ARCH} placeholders; Rule is
// the rendered rule string the placeholders refer to.
type Finding struct {
	Severity Severity `json:"severity"`
	Waiver   Waiver   `json:"waiver"`
	Message  string   `json:"message,omitempty"`
	Noun     string   `json:"noun,omitempty"`
	Remedy   Remedy   `json:"remedy,omitempty"`
	Rule     string   `json:"rule,omitempty"`
	Arch     string   `json:"arch,omitempty"`
	SpecFile string   `json:"specFile,omitempty"`
}

// Report accumulates findings across all passes of one verification
// run.
type Report struct {
	RunID    string    `json:"runId"`
	SpecFile string    `json:"specFile"`
	Success  bool      `json:"success"`
	Findings []Finding `json:"findings"`
}

func newReport(specFile string) *Report {
	return &Report{
		RunID:    uuid.NewString(),
		SpecFile: specFile,
	}
}

func (r *Report) add(f Finding) {
	if f.SpecFile == "" {
		f.SpecFile = r.SpecFile
	}
	r.Findings = append(r.Findings, f)
}

// Verdict reports whether the run passed: no finding of verify or bad
// severity.
func (r *Report) Verdict() bool {
	for _, f := range r.Findings {
		if f.Severity >= SeverityVerify {
			return false
		}
	}
	return true
}

// changePolicy is the shared severity decision for findings whose
// weight depends on whether the build transition is a rebase: rebases
// downgrade to informational, everything else needs review.
func changePolicy(rebase bool, blocking Severity) (Severity, Waiver) {
	if rebase {
		return SeverityInfo, NotWaivable
	}
	return blocking, WaivableByAnyone
}
