package verify

import (
	"fmt"
	"strings"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/build"
)

// checkUnexpandedMacros flags after-rules whose version still contains
// unexpanded macro syntax: a "%{" marker followed later in the string
// by a closing "}". A "%{" with no closer anywhere after it is left
// alone, matching the long-standing policy of not guessing at
// incomplete markers.
func (v *Verifier) checkUnexpandedMacros(sub *build.Subpackage) {
	for _, rule := range sub.AfterRules {
		if rule.Version == "" {
			continue
		}

		open := strings.Index(rule.Version, "%{")
		if open < 0 || !strings.Contains(rule.Version[open+2:], "}") {
			continue
		}

		rs := rule.String()
		v.report.add(Finding{
			Severity: SeverityBad,
			Waiver:   WaivableByAnyone,
			Message: fmt.Sprintf("Invalid looking %s dependency in the %s package on %s: %s",
				rule.Kind, sub.Name, sub.Arch, rs),
			Noun:   fmt.Sprintf("'${FILE}' in %s on ${ARCH}", sub.Name),
			Remedy: RemedyMacros,
			Rule:   rs,
			Arch:   sub.Arch,
		})
	}
}
