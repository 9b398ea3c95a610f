package verify

import (
	"fmt"
	"strings"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/build"
	"github.com/open-edge-platform/rpmdeps-verifier/internal/deprule"
)

// checkExplicitLibDeps verifies that every autogenerated shared-library
// Requires of sub is backed by an explicit same-version Requires on the
// subpackage providing that library, and that no library dependency has
// more than one providing subpackage.
func (v *Verifier) checkExplicitLibDeps(sub *build.Subpackage) {
	for _, req := range sub.AfterRules {
		if req.Kind != deprule.KindRequires || !strings.HasPrefix(req.Name, deprule.SharedLibPrefix) {
			continue
		}

		provider := v.findProviders(req)

		if provider != nil && !hasExplicitRequirement(sub, provider) {
			v.reportMissingExplicitDep(sub, req, provider)
		}

		if len(req.Providers) > 1 {
			v.reportMultipleProviders(sub, req)
		}
	}
}

// findProviders scans every subpackage's after-rules for Provides
// matching req, recording each distinct providing subpackage into the
// rule's provider set. The first provider in subpackage declaration
// order becomes the candidate returned for the explicit-requirement
// check; scanning continues so multi-provider situations surface no
// matter where the extra provider sits.
func (v *Verifier) findProviders(req *deprule.Rule) *build.Subpackage {
	var candidate *build.Subpackage

	for _, peer := range v.build.Subpackages {
		if len(peer.AfterRules) == 0 {
			continue
		}

		for _, prov := range peer.AfterRules {
			// A package may Provide and Require the same capability.
			if prov == req {
				continue
			}
			if prov.Kind != deprule.KindProvides || !strings.HasPrefix(prov.Name, deprule.SharedLibPrefix) {
				continue
			}

			if !providesMatch(req.Name, prov.Name) {
				continue
			}

			req.AddProvider(peer.Name)
			if candidate == nil {
				candidate = peer
			}
		}
	}

	return candidate
}

// providesMatch compares dependency subjects exactly and, when either
// carries an architecture qualifier such as "(x86-64)", once more with
// the qualifiers stripped.
func providesMatch(req, prov string) bool {
	if req == prov {
		return true
	}
	if strings.Contains(req, "(") || strings.Contains(prov, "(") {
		return deprule.StripQualifier(req) == deprule.StripQualifier(prov)
	}
	return false
}

// hasExplicitRequirement looks through sub's non-library Requires for
// an exact-equality dependency on the provider at the provider's
// current version token.
func hasExplicitRequirement(sub *build.Subpackage, provider *build.Subpackage) bool {
	want := provider.DepVersion()

	for _, rule := range sub.AfterRules {
		if rule.Kind != deprule.KindRequires || strings.HasPrefix(rule.Name, deprule.SharedLibPrefix) {
			continue
		}
		if rule.Name == provider.Name && rule.Operator == deprule.OpEqual && rule.Version == want {
			return true
		}
	}
	return false
}

func (v *Verifier) reportMissingExplicitDep(sub *build.Subpackage, req *deprule.Rule, provider *build.Subpackage) {
	token := "%{version}-%{release}"
	remedy := RemedyExplicitDep
	if provider.Epoch > 0 {
		token = "%{epoch}:%{version}-%{release}"
		remedy = RemedyExplicitDepEpoch
	}

	v.report.add(Finding{
		Severity: SeverityVerify,
		Waiver:   WaivableByAnyone,
		Message: fmt.Sprintf("Subpackage %s on %s carries '%s' which comes from subpackage %s but does not carry an explicit package version requirement.  Please add 'Requires: %s = %s' to the spec file to avoid the need to test interoperability between various combinations of old and new subpackages.",
			sub.Name, sub.Arch, req.String(), provider.Name, provider.Name, token),
		Noun:   fmt.Sprintf("missing 'Requires: ${FILE} = %s' in %s on ${ARCH}", token, sub.Name),
		Remedy: remedy,
		Rule:   provider.Name,
		Arch:   sub.Arch,
	})
}

func (v *Verifier) reportMultipleProviders(sub *build.Subpackage, req *deprule.Rule) {
	rs := req.String()
	providers := strings.Join(req.Providers, ", ")

	v.report.add(Finding{
		Severity: SeverityVerify,
		Waiver:   WaivableByAnyone,
		Message:  fmt.Sprintf("Multiple subpackages provide '%s': %s", rs, providers),
		Noun:     fmt.Sprintf("%s all provide '${FILE}' on ${ARCH}", providers),
		Remedy:   RemedyMultipleProviders,
		Rule:     rs,
		Arch:     sub.Arch,
	})
}
