package verify

import (
	"fmt"
	"strings"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/build"
)

// checkExplicitEpoch verifies that, for a subpackage defining an Epoch,
// every dependency rule whose version ends in the subpackage's own
// version-release also carries the "epoch:" prefix. Missing prefixes
// block unless the build is a rebase.
func (v *Verifier) checkExplicitEpoch(sub *build.Subpackage) {
	if sub.Epoch == 0 || len(sub.AfterRules) == 0 {
		return
	}

	verrel := sub.VersionRelease()
	prefix := fmt.Sprintf("%d:", sub.Epoch)
	severity, waiver := changePolicy(v.build.Rebase, SeverityBad)

	for _, rule := range sub.AfterRules {
		if rule.Version == "" {
			continue
		}
		if !strings.HasSuffix(rule.Version, verrel) || strings.HasPrefix(rule.Version, prefix) {
			continue
		}

		rs := rule.String()
		v.report.add(Finding{
			Severity: severity,
			Waiver:   waiver,
			Message: fmt.Sprintf("Missing epoch prefix on the version-release in '%s' for %s on %s",
				rs, sub.Name, sub.Arch),
			Noun:   fmt.Sprintf("'${FILE}' needs epoch in %s on ${ARCH}", sub.Name),
			Remedy: RemedyEpochPrefix,
			Rule:   rs,
			Arch:   sub.Arch,
		})
	}
}
