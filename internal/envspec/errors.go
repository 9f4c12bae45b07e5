package envspec

import "fmt"

// MalformedDescriptorError reports a structural problem with the manifest
// document: a missing required top-level key, or a wrong value type for a
// known key.
type MalformedDescriptorError struct {
	Key    string // offending top-level key, empty when the document itself is broken
	Reason string
}

func (e *MalformedDescriptorError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("malformed environment descriptor: %s", e.Reason)
	}
	return fmt.Sprintf("malformed environment descriptor: key %q: %s", e.Key, e.Reason)
}

// InvalidConstraintError reports a dependency entry whose syntax matches no
// recognized variant.
type InvalidConstraintError struct {
	Entry  string
	Reason string
}

func (e *InvalidConstraintError) Error() string {
	return fmt.Sprintf("invalid dependency entry %q: %s", e.Entry, e.Reason)
}

// DuplicatePackageError reports a package name that appears twice within one
// dependency list.
type DuplicatePackageError struct {
	Name string
}

func (e *DuplicatePackageError) Error() string {
	return fmt.Sprintf("duplicate package %q in dependency list", e.Name)
}
