package verify

import (
	"fmt"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/build"
	"github.com/open-edge-platform/rpmdeps-verifier/internal/deprule"
)

// classifyChanges diffs one subpackage's before and after rule sets
// into gained, retained, changed and lost findings. Retained rules and
// expected changes are informational; everything else follows the
// rebase policy.
func (v *Verifier) classifyChanges(sub *build.Subpackage) {
	for _, rule := range sub.AfterRules {
		v.report.add(v.classifyAfterRule(sub, rule))
	}

	for _, rule := range sub.BeforeRules {
		if rule.Peer != nil {
			continue
		}

		severity, waiver := changePolicy(v.build.Rebase, SeverityVerify)
		rs := rule.String()
		v.report.add(Finding{
			Severity: severity,
			Waiver:   waiver,
			Message:  fmt.Sprintf("Lost '%s' %s", rs, subpackageLabel(sub)),
			Noun:     fmt.Sprintf("'${FILE}' in %s on ${ARCH}", sub.Name),
			Remedy:   RemedyLost,
			Rule:     rs,
			Arch:     sub.Arch,
		})
	}
}

func (v *Verifier) classifyAfterRule(sub *build.Subpackage, rule *deprule.Rule) Finding {
	rs := rule.String()

	if rule.Peer == nil {
		severity, waiver := changePolicy(v.build.Rebase, SeverityVerify)
		return Finding{
			Severity: severity,
			Waiver:   waiver,
			Message:  fmt.Sprintf("Gained '%s' %s", rs, subpackageLabel(sub)),
			Noun:     fmt.Sprintf("'${FILE}' in %s on ${ARCH}", sub.Name),
			Remedy:   RemedyGained,
			Rule:     rs,
			Arch:     sub.Arch,
		}
	}

	if deprule.Match(rule, rule.Peer) {
		return Finding{
			Severity: SeverityInfo,
			Waiver:   NotWaivable,
			Message:  fmt.Sprintf("Retained '%s' %s", rs, subpackageLabel(sub)),
			Noun:     fmt.Sprintf("'${FILE}' in %s on ${ARCH}", sub.Name),
			Rule:     rs,
			Arch:     sub.Arch,
		}
	}

	prs := rule.Peer.String()
	f := Finding{
		Message: fmt.Sprintf("Changed '%s' to '%s' %s", prs, rs, subpackageLabel(sub)),
		Noun:    fmt.Sprintf("'%s' became '${FILE}' in %s on ${ARCH}", prs, sub.Name),
		Remedy:  RemedyChanged,
		Rule:    rs,
		Arch:    sub.Arch,
	}

	if v.expectedChange(sub, rule) {
		f.Severity = SeverityInfo
		f.Waiver = NotWaivable
		f.Message += "; this is expected"
	} else {
		f.Severity, f.Waiver = changePolicy(v.build.Rebase, SeverityVerify)
	}

	return f
}

// expectedChange decides whether a changed rule is an accepted
// consequence of normal versioning rather than a regression: the rule
// tracks a sibling subpackage's own version exactly. Source package
// changes and rebase builds are always expected.
func (v *Verifier) expectedChange(sub *build.Subpackage, rule *deprule.Rule) bool {
	if sub.IsSource() {
		return true
	}
	if v.build.Rebase {
		return true
	}

	name := deprule.StripQualifier(rule.Name)

	var sibling *build.Subpackage
	for _, peer := range v.build.Subpackages {
		if peer.IsSource() {
			continue
		}
		if peer.Arch == sub.Arch && peer.Name == name {
			sibling = peer
			break
		}
	}
	if sibling == nil {
		return false
	}

	return rule.Operator == deprule.OpEqual && rule.Version == sibling.DepVersion()
}

// subpackageLabel phrases the location of a finding, distinguishing the
// source package from binary subpackages.
func subpackageLabel(sub *build.Subpackage) string {
	if sub.Arch == build.SourceArch {
		return fmt.Sprintf("in source package %s", sub.Name)
	}
	return fmt.Sprintf("in subpackage %s on %s", sub.Name, sub.Arch)
}
