package verify

import (
	"testing"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/build"
	"github.com/open-edge-platform/rpmdeps-verifier/internal/deprule"
)

func findingsWithRemedy(r *Report, remedy Remedy) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Remedy == remedy {
			out = append(out, f)
		}
	}
	return out
}

func TestUnexpandedMacroFlagged(t *testing.T) {
	b := &build.Build{
		Subpackages: []*build.Subpackage{
			{
				Name: "foo", Arch: "x86_64", Version: "1.0", Release: "1",
				AfterRules: []*deprule.Rule{
					{Kind: deprule.KindRequires, Name: "bar", Operator: deprule.OpEqual, Version: "%{barver}"},
				},
			},
		},
	}

	report, ok := Run(b)
	if ok {
		t.Fatalf("expected failure")
	}

	found := findingsWithRemedy(report, RemedyMacros)
	if len(found) != 1 {
		t.Fatalf("expected 1 macro finding, got %d", len(found))
	}
	f := found[0]
	if f.Severity != SeverityBad || f.Waiver != WaivableByAnyone {
		t.Fatalf("wrong policy: %+v", f)
	}
	if f.Rule != "bar = %{barver}" {
		t.Fatalf("wrong rule string: %q", f.Rule)
	}
}

func TestUnexpandedMacroNonMatches(t *testing.T) {
	b := &build.Build{
		Subpackages: []*build.Subpackage{
			{
				Name: "foo", Arch: "x86_64", Version: "1.0", Release: "1",
				AfterRules: []*deprule.Rule{
					// Clean version.
					{Kind: deprule.KindRequires, Name: "bar", Operator: deprule.OpEqual, Version: "1.0"},
					// Open marker with no closer anywhere after it.
					{Kind: deprule.KindRequires, Name: "baz", Operator: deprule.OpEqual, Version: "%{undefined"},
					// Unversioned.
					{Kind: deprule.KindRequires, Name: "qux"},
				},
			},
		},
	}

	report, ok := Run(b)
	if !ok {
		t.Fatalf("expected success, findings: %+v", report.Findings)
	}
	if len(findingsWithRemedy(report, RemedyMacros)) != 0 {
		t.Fatalf("no macro findings expected")
	}
}

func TestUnexpandedMacroCloserBeforeOpenerIgnored(t *testing.T) {
	b := &build.Build{
		Subpackages: []*build.Subpackage{
			{
				Name: "foo", Arch: "x86_64", Version: "1.0", Release: "1",
				AfterRules: []*deprule.Rule{
					{Kind: deprule.KindRequires, Name: "bar", Operator: deprule.OpEqual, Version: "1.0}%{rest"},
				},
			},
		},
	}

	if _, ok := Run(b); !ok {
		t.Fatalf("closer preceding the opener is not a macro")
	}
}
