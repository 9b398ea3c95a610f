// Package deprule models one declared dependency expression of an RPM
// package (a Requires:, Provides:, Conflicts:, ... entry) together with
// its linkage to the corresponding rule in another build of the same
// package.
package deprule

import "strings"

// SharedLibPrefix marks dependency subjects that name a shared library
// soname (e.g. "libfoo.so.1()(64bit)").
const SharedLibPrefix = "lib"

// Kind identifies the dependency class a rule belongs to. Only Requires
// and Provides receive special handling by the verifiers; everything
// else is carried through for diffing and reporting.
type Kind int

const (
	KindOther Kind = iota
	KindRequires
	KindProvides
	KindConflicts
	KindObsoletes
	KindRecommends
	KindSuggests
	KindSupplements
	KindEnhances
)

var kindNames = map[Kind]string{
	KindOther:       "dependency",
	KindRequires:    "Requires",
	KindProvides:    "Provides",
	KindConflicts:   "Conflicts",
	KindObsoletes:   "Obsoletes",
	KindRecommends:  "Recommends",
	KindSuggests:    "Suggests",
	KindSupplements: "Supplements",
	KindEnhances:    "Enhances",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindOther]
}

// Operator is the version comparison of a rule, OpNone when the rule is
// unversioned.
type Operator int

const (
	OpNone Operator = iota
	OpEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
)

var operatorNames = map[Operator]string{
	OpNone:         "",
	OpEqual:        "=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
}

func (o Operator) String() string { return operatorNames[o] }

// ParseOperator maps the textual comparison operators used in spec files
// and manifest listings back to an Operator. Unknown text maps to OpNone.
func ParseOperator(s string) Operator {
	switch s {
	case "=", "==":
		return OpEqual
	case "<":
		return OpLess
	case "<=":
		return OpLessEqual
	case ">":
		return OpGreater
	case ">=":
		return OpGreaterEqual
	}
	return OpNone
}

// Rule is one dependency declaration. Peer points at the counterpart
// rule in the other build (nil when the other build has no match) and is
// established once by FindPeers; the verifiers only read it. Providers
// accumulates, during verification, the distinct subpackage names found
// to provide a shared-library Requires.
type Rule struct {
	Kind     Kind
	Name     string
	Operator Operator
	Version  string

	Peer      *Rule
	Providers []string
}

// String renders the rule the way it appears in package metadata:
// "name" or "name <op> version".
func (r *Rule) String() string {
	if r.Operator == OpNone || r.Version == "" {
		return r.Name
	}
	return r.Name + " " + r.Operator.String() + " " + r.Version
}

// Match reports whether two rules are structurally equivalent: same
// kind, subject, operator and version.
func Match(a, b *Rule) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind && a.Name == b.Name && a.Operator == b.Operator && a.Version == b.Version
}

// AddProvider records a providing subpackage name, keeping Providers an
// ordered set.
func (r *Rule) AddProvider(name string) {
	for _, p := range r.Providers {
		if p == name {
			return
		}
	}
	r.Providers = append(r.Providers, name)
}

// StripQualifier truncates a dependency subject at its architecture
// qualifier, e.g. "foo-libs(x86-64)" becomes "foo-libs". Subjects
// without a qualifier come back unchanged.
func StripQualifier(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		return name[:i]
	}
	return name
}
