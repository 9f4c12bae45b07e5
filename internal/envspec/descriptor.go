package envspec

// Descriptor is the in-memory form of an environment manifest: the
// environment name, the priority-ordered package channels, and the ordered
// dependency declarations. A Descriptor is built once by Load and never
// mutated afterwards, so it is safe to share across goroutines.
type Descriptor struct {
	Name         string
	Channels     []string
	Dependencies []DependencySpec
}

// DependencySpec is one entry of the manifest dependency list. It is either
// a ChannelPackage or a SecondaryGroup.
type DependencySpec interface {
	dependencySpec()
}

// ChannelPackage is a package requested from the primary channels, with an
// optional version constraint. A nil Constraint means any version.
type ChannelPackage struct {
	Name       string
	Constraint *Constraint
}

func (ChannelPackage) dependencySpec() {}

// SecondaryGroup holds the ordered entries of a secondary package index
// block (the `pip:` marker in the manifest).
type SecondaryGroup struct {
	Entries []SecondaryPackage
}

func (SecondaryGroup) dependencySpec() {}

// SecondaryPackage is one entry of a SecondaryGroup. It is either a
// VersionedPackage or a SourceReference.
type SecondaryPackage interface {
	secondaryPackage()
}

// VersionedPackage is a secondary-index package with an optional version
// constraint, using the same syntax as ChannelPackage entries.
type VersionedPackage struct {
	Name       string
	Constraint *Constraint
}

func (VersionedPackage) secondaryPackage() {}

// SourceReference pins a dependency to a revision of a remote source-control
// repository instead of a published release. An empty Revision means the
// default branch.
type SourceReference struct {
	RepositoryURL string
	Revision      string
}

func (SourceReference) secondaryPackage() {}

// ChannelPackages returns the primary-channel entries in declaration order.
func (d *Descriptor) ChannelPackages() []ChannelPackage {
	var pkgs []ChannelPackage
	for _, dep := range d.Dependencies {
		if cp, ok := dep.(ChannelPackage); ok {
			pkgs = append(pkgs, cp)
		}
	}
	return pkgs
}

// SecondaryPackages returns the entries of all secondary-index groups in
// declaration order.
func (d *Descriptor) SecondaryPackages() []SecondaryPackage {
	var pkgs []SecondaryPackage
	for _, dep := range d.Dependencies {
		if grp, ok := dep.(SecondaryGroup); ok {
			pkgs = append(pkgs, grp.Entries...)
		}
	}
	return pkgs
}

// HasChannel reports whether the named channel is declared.
func (d *Descriptor) HasChannel(name string) bool {
	for _, c := range d.Channels {
		if c == name {
			return true
		}
	}
	return false
}

// DependencyCount returns the number of individual dependency declarations,
// counting each secondary-group entry separately.
func (d *Descriptor) DependencyCount() int {
	n := 0
	for _, dep := range d.Dependencies {
		switch v := dep.(type) {
		case ChannelPackage:
			n++
		case SecondaryGroup:
			n += len(v.Entries)
		}
	}
	return n
}
