package deprule

import (
	"fmt"
	"strings"
)

// Parse turns one dependency listing line into a Rule. The accepted
// forms match what rpm prints for a dependency: a bare subject
// ("libfoo.so.1()(64bit)") or a versioned comparison
// ("foo-libs = 2.0-1"). The kind is supplied by the caller since
// listings are grouped per dependency class.
func Parse(kind Kind, s string) (*Rule, error) {
	fields := strings.Fields(s)

	switch len(fields) {
	case 1:
		return &Rule{Kind: kind, Name: fields[0]}, nil
	case 3:
		op := ParseOperator(fields[1])
		if op == OpNone {
			return nil, fmt.Errorf("unknown comparison operator %q in %q", fields[1], s)
		}
		return &Rule{Kind: kind, Name: fields[0], Operator: op, Version: fields[2]}, nil
	}

	return nil, fmt.Errorf("malformed dependency %q: want NAME or NAME OP VERSION", s)
}
