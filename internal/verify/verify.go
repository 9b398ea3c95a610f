package verify

import (
	"go.uber.org/zap"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/build"
	"github.com/open-edge-platform/rpmdeps-verifier/internal/utils/logger"
)

// Verifier drives the verification passes over one build. It is cheap
// to construct and holds no state beyond the run, so one process can
// verify any number of builds.
type Verifier struct {
	build  *build.Build
	report *Report
	log    *zap.SugaredLogger
}

// Run performs all verification passes over the build and returns the
// findings report plus the aggregate verdict.
func Run(b *build.Build) (*Report, bool) {
	v := &Verifier{
		build:  b,
		report: newReport(b.SpecFile()),
		log:    logger.Logger(),
	}

	// First pass: simple per-rule checks.
	for _, sub := range b.Subpackages {
		v.checkUnexpandedMacros(sub)
	}

	// Second pass: checks needing the whole subpackage collection.
	for _, sub := range b.Subpackages {
		v.checkExplicitLibDeps(sub)
		v.checkExplicitEpoch(sub)
	}

	// Third pass: before/after diff, only with a prior build present.
	if b.HasBefore() {
		for _, sub := range b.Subpackages {
			v.classifyChanges(sub)
		}
	}

	ok := v.report.Verdict()
	v.report.Success = ok

	if ok {
		v.report.add(Finding{Severity: SeverityOK, Waiver: NotWaivable})
	}

	v.log.Debugf("verified %d subpackages, %d findings, success=%v",
		len(b.Subpackages), len(v.report.Findings), ok)

	return v.report, ok
}
