package envspec

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Constraint restricts which published versions satisfy a dependency.
// Op is one of the comparator tokens below; Version is the bare version
// string following it.
type Constraint struct {
	Op      string
	Version string
}

// comparators in match order: two-character tokens must be tried before
// their one-character prefixes.
var comparators = []string{">=", "<=", "==", ">", "<", "="}

func (c *Constraint) String() string {
	return c.Op + c.Version
}

// Exact reports whether the constraint pins a single version ("=" or "==").
func (c *Constraint) Exact() bool {
	return c.Op == "=" || c.Op == "=="
}

// Satisfies reports whether the given published version satisfies the
// constraint. The "==" spelling is normalized to "=" before evaluation.
func (c *Constraint) Satisfies(version string) (bool, error) {
	op := c.Op
	if op == "==" {
		op = "="
	}
	cons, err := semver.NewConstraint(op + c.Version)
	if err != nil {
		return false, fmt.Errorf("evaluating constraint %q: %w", c.String(), err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", version, err)
	}
	return cons.Check(v), nil
}

// splitConstraint separates a dependency entry into the package name and an
// optional version constraint, splitting on the first comparator token.
// A bare name with no comparator yields a nil constraint (any version).
func splitConstraint(entry string) (string, *Constraint, error) {
	at := -1
	var op string
	for i := 0; i < len(entry); i++ {
		for _, cand := range comparators {
			if strings.HasPrefix(entry[i:], cand) {
				at = i
				op = cand
				break
			}
		}
		if at >= 0 {
			break
		}
	}

	if at < 0 {
		name := strings.TrimSpace(entry)
		if name == "" {
			return "", nil, &InvalidConstraintError{Entry: entry, Reason: "empty package name"}
		}
		return name, nil, nil
	}

	name := strings.TrimSpace(entry[:at])
	version := strings.TrimSpace(entry[at+len(op):])
	if name == "" {
		return "", nil, &InvalidConstraintError{Entry: entry, Reason: "missing package name before comparator"}
	}
	if version == "" {
		return "", nil, &InvalidConstraintError{Entry: entry, Reason: fmt.Sprintf("missing version after %q", op)}
	}
	if strings.ContainsAny(version, "<>=") {
		return "", nil, &InvalidConstraintError{Entry: entry, Reason: "multiple comparator tokens"}
	}
	return name, &Constraint{Op: op, Version: version}, nil
}
