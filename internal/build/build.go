// Package build holds the in-memory model of one verification input: the
// set of subpackages produced by a build, optionally paired with the
// subpackages of a prior build of the same package.
package build

import (
	"fmt"
	"strings"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/deprule"
)

// SourceArch is the pseudo-architecture rpm reports for source packages.
const SourceArch = "src"

// SpecFileExtension identifies the spec file among a source package's
// payload paths.
const SpecFileExtension = ".spec"

// FallbackSpecLabel is used in findings when no source package (and so
// no spec file path) is available.
const FallbackSpecLabel = "spec file"

// Subpackage is one binary or source package produced by the build.
// BeforeRules is nil when no prior build exists for this subpackage.
type Subpackage struct {
	Name    string
	Arch    string
	Epoch   uint64
	Version string
	Release string

	// Files is the payload path list, used only to locate the spec
	// file for reporting.
	Files []string

	BeforeRules []*deprule.Rule
	AfterRules  []*deprule.Rule
}

// IsSource reports whether this is the source package of the build.
func (s *Subpackage) IsSource() bool { return s.Arch == SourceArch }

// VersionRelease returns the "version-release" string of the subpackage.
func (s *Subpackage) VersionRelease() string {
	return s.Version + "-" + s.Release
}

// DepVersion returns the version token an explicit dependency on this
// subpackage must carry: "version-release", or
// "epoch:version-release" when the epoch is set.
func (s *Subpackage) DepVersion() string {
	if s.Epoch > 0 {
		return fmt.Sprintf("%d:%s", s.Epoch, s.VersionRelease())
	}
	return s.VersionRelease()
}

// Build is the top-level verification input.
type Build struct {
	Subpackages []*Subpackage

	// BeforeVersion/AfterVersion are the upstream versions of the two
	// builds, used for rebase detection. BeforeVersion is empty when no
	// prior build was given.
	BeforeVersion string
	AfterVersion  string

	// Rebase marks the before->after transition as a deliberate version
	// bump, under which dependency churn is expected.
	Rebase bool
}

// HasBefore reports whether a prior build is present, which enables the
// gained/retained/changed/lost classification.
func (b *Build) HasBefore() bool {
	for _, s := range b.Subpackages {
		if s.BeforeRules != nil {
			return true
		}
	}
	return false
}

// DetectRebase compares the upstream versions of the two builds. A
// differing version is treated as a rebase.
func DetectRebase(beforeVersion, afterVersion string) bool {
	return beforeVersion != "" && afterVersion != "" && beforeVersion != afterVersion
}

// SpecFile locates the spec file name among the source package's payload
// paths, for reporting only. Falls back to a generic label when the
// build has no source package or the source package carries no spec.
func (b *Build) SpecFile() string {
	for _, s := range b.Subpackages {
		if !s.IsSource() {
			continue
		}
		for _, f := range s.Files {
			if strings.HasSuffix(f, SpecFileExtension) {
				return f
			}
		}
	}
	return FallbackSpecLabel
}

// LinkPeers runs before/after rule peering for every subpackage that has
// a prior build.
func (b *Build) LinkPeers() {
	for _, s := range b.Subpackages {
		if s.BeforeRules != nil {
			deprule.FindPeers(s.BeforeRules, s.AfterRules)
		}
	}
}
