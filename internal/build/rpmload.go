package build

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sassoftware/go-rpmutils"
	"github.com/schollz/progressbar/v3"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/deprule"
)

// Version comparison bits of the RPMSENSE dependency flags.
const (
	rpmsenseLess    = 0x02
	rpmsenseGreater = 0x04
	rpmsenseEqual   = 0x08
)

// Weak dependency tags (rpm >= 4.12). Not part of the generated tag
// table in go-rpmutils, so carried here.
const (
	tagRecommendName     = 5046
	tagRecommendVersion  = 5047
	tagRecommendFlags    = 5048
	tagSuggestName       = 5049
	tagSuggestVersion    = 5050
	tagSuggestFlags      = 5051
	tagSupplementName    = 5052
	tagSupplementVersion = 5053
	tagSupplementFlags   = 5054
	tagEnhanceName       = 5055
	tagEnhanceVersion    = 5056
	tagEnhanceFlags      = 5057
)

// depTagSet names the header tag triplet holding one dependency class.
type depTagSet struct {
	kind    deprule.Kind
	name    int
	version int
	flags   int
}

var depTagSets = []depTagSet{
	{deprule.KindRequires, rpmutils.REQUIRENAME, rpmutils.REQUIREVERSION, rpmutils.REQUIREFLAGS},
	{deprule.KindProvides, rpmutils.PROVIDENAME, rpmutils.PROVIDEVERSION, rpmutils.PROVIDEFLAGS},
	{deprule.KindConflicts, rpmutils.CONFLICTNAME, rpmutils.CONFLICTVERSION, rpmutils.CONFLICTFLAGS},
	{deprule.KindObsoletes, rpmutils.OBSOLETENAME, rpmutils.OBSOLETEVERSION, rpmutils.OBSOLETEFLAGS},
	{deprule.KindRecommends, tagRecommendName, tagRecommendVersion, tagRecommendFlags},
	{deprule.KindSuggests, tagSuggestName, tagSuggestVersion, tagSuggestFlags},
	{deprule.KindSupplements, tagSupplementName, tagSupplementVersion, tagSupplementFlags},
	{deprule.KindEnhances, tagEnhanceName, tagEnhanceVersion, tagEnhanceFlags},
}

// LoadRPMFile reads one .rpm file and extracts the subpackage record
// and its declared dependency rules from the header.
func LoadRPMFile(path string) (*Subpackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rpm: %w", err)
	}
	defer f.Close()

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		return nil, fmt.Errorf("reading rpm header of %s: %w", path, err)
	}

	nevra, err := rpm.Header.GetNEVRA()
	if err != nil {
		return nil, fmt.Errorf("reading NEVRA of %s: %w", path, err)
	}

	sub := &Subpackage{
		Name:    nevra.Name,
		Arch:    nevra.Arch,
		Version: nevra.Version,
		Release: nevra.Release,
	}

	if nevra.Epoch != "" && nevra.Epoch != "0" {
		epoch, err := strconv.ParseUint(nevra.Epoch, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad epoch %q in %s: %w", nevra.Epoch, path, err)
		}
		sub.Epoch = epoch
	}

	// A source package has no SOURCERPM of its own; its header arch is
	// the build host arch, so normalize to the source pseudo-arch.
	if srcrpm, err := rpm.Header.GetStrings(rpmutils.SOURCERPM); err != nil || len(srcrpm) == 0 || srcrpm[0] == "" {
		sub.Arch = SourceArch
	}

	if files, err := rpm.Header.GetFiles(); err == nil {
		for _, fi := range files {
			sub.Files = append(sub.Files, fi.Name())
		}
	}

	sub.AfterRules = gatherRules(rpm.Header)
	return sub, nil
}

// gatherRules reads the dependency tag triplets out of one header into
// rule records, preserving header order within each class.
func gatherRules(hdr *rpmutils.RpmHeader) []*deprule.Rule {
	var rules []*deprule.Rule

	for _, set := range depTagSets {
		names, err := hdr.GetStrings(set.name)
		if err != nil || len(names) == 0 {
			continue
		}
		versions, _ := hdr.GetStrings(set.version)
		flags, _ := hdr.GetUint64s(set.flags)

		for i, name := range names {
			rule := &deprule.Rule{Kind: set.kind, Name: name}
			if i < len(versions) && versions[i] != "" {
				rule.Version = versions[i]
			}
			if i < len(flags) {
				rule.Operator = senseToOperator(flags[i])
			}
			rules = append(rules, rule)
		}
	}

	return rules
}

func senseToOperator(sense uint64) deprule.Operator {
	switch {
	case sense&rpmsenseLess != 0 && sense&rpmsenseEqual != 0:
		return deprule.OpLessEqual
	case sense&rpmsenseGreater != 0 && sense&rpmsenseEqual != 0:
		return deprule.OpGreaterEqual
	case sense&rpmsenseLess != 0:
		return deprule.OpLess
	case sense&rpmsenseGreater != 0:
		return deprule.OpGreater
	case sense&rpmsenseEqual != 0:
		return deprule.OpEqual
	}
	return deprule.OpNone
}

// LoadRPMDir reads every .rpm file under dir (non-recursive) into
// subpackage records, sorted by file name so subpackage order, and with
// it provider discovery, stays deterministic between runs.
func LoadRPMDir(dir string) ([]*Subpackage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".rpm") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no rpm files in %s", dir)
	}
	sort.Strings(paths)

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("reading rpms"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	var subs []*Subpackage
	for _, p := range paths {
		bar.Describe(fmt.Sprintf("reading %s", filepath.Base(p)))
		sub, err := LoadRPMFile(p)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
		bar.Add(1)
	}
	bar.Finish()

	return subs, nil
}

// LoadBuildFromDirs assembles a Build from a directory of after-build
// rpms and, when beforeDir is non-empty, a directory of before-build
// rpms. Before and after subpackages pair up by package name and arch;
// rules of paired subpackages are peer-linked.
func LoadBuildFromDirs(afterDir, beforeDir string) (*Build, error) {
	after, err := LoadRPMDir(afterDir)
	if err != nil {
		return nil, err
	}

	b := &Build{
		Subpackages:  after,
		AfterVersion: buildVersion(after),
	}

	if beforeDir != "" {
		before, err := LoadRPMDir(beforeDir)
		if err != nil {
			return nil, err
		}

		pairBeforeRules(after, before)

		b.BeforeVersion = buildVersion(before)
		b.Rebase = DetectRebase(b.BeforeVersion, b.AfterVersion)
	}

	b.LinkPeers()
	return b, nil
}

// pairBeforeRules attaches each before subpackage's rules to the after
// subpackage with the same name and arch. Multilib builds ship the
// same package name for several arches, so name alone would collapse
// them onto one arch's rule set and diff every other arch against the
// wrong rules.
func pairBeforeRules(after, before []*Subpackage) {
	byKey := make(map[string]*Subpackage, len(before))
	for _, s := range before {
		byKey[s.Name+"."+s.Arch] = s
	}
	for _, s := range after {
		if old, ok := byKey[s.Name+"."+s.Arch]; ok {
			s.BeforeRules = old.AfterRules
		}
	}
}

// buildVersion picks the upstream version of a build: the source
// package's version when present, otherwise the first subpackage's.
func buildVersion(subs []*Subpackage) string {
	for _, s := range subs {
		if s.IsSource() {
			return s.Version
		}
	}
	if len(subs) > 0 {
		return subs[0].Version
	}
	return ""
}
