// Package resolver walks an environment descriptor against a channel index
// snapshot and picks, per dependency, the version that will go into the lock
// manifest. Resolution is entirely offline: it consults only the snapshot,
// performs no downloads and no installation.
package resolver

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/open-geo-platform/env-composer/internal/envspec"
	"github.com/open-geo-platform/env-composer/internal/index"
	"github.com/open-geo-platform/env-composer/internal/utils/logger"
	"github.com/schollz/progressbar/v3"
)

var log = logger.Logger()

// Kind classifies where a resolved package came from.
type Kind string

const (
	KindChannel   Kind = "channel"   // resolved from a primary channel
	KindSecondary Kind = "secondary" // resolved from a secondary index
	KindSource    Kind = "source"    // pinned to a source-control revision
)

// ResolvedPackage is one line of the resolution result.
type ResolvedPackage struct {
	Name    string
	Version string // empty for a source reference on its default branch
	Channel string // channel or index name; repository URL for source refs
	Kind    Kind
}

// NotFoundError reports a package absent from every consulted channel or
// index.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package %q not found in any consulted channel", e.Name)
}

// UnsatisfiableError reports a package whose owning channel carries no
// version matching the constraint.
type UnsatisfiableError struct {
	Name       string
	Constraint string
	Channel    string
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("no version of %q in channel %q satisfies %q",
		e.Name, e.Channel, e.Constraint)
}

// Options tunes a resolution run.
type Options struct {
	ShowProgress bool // render a terminal progress bar over dependency entries
}

// Resolve produces the ordered resolved package list for a descriptor.
//
// Channels are consulted in declared priority order; the first channel that
// carries a package at all owns it, and resolution fails rather than falling
// through when that channel has no satisfying version. A secondary-index
// entry overrides an earlier channel entry of the same name.
func Resolve(desc *envspec.Descriptor, snap *index.Snapshot, opts Options) ([]ResolvedPackage, error) {
	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = newProgressBar(desc.DependencyCount())
	}
	advance := func(name string) {
		if bar == nil {
			return
		}
		bar.Describe(name)
		if err := bar.Add(1); err != nil {
			log.Errorf("failed to add to progress bar: %v", err)
		}
	}

	var resolved []ResolvedPackage
	position := map[string]int{}

	// Secondary-index entries take precedence over channel entries of the
	// same name regardless of declaration order: a secondary record replaces
	// an earlier channel record in place, and a channel record never
	// replaces an earlier secondary one.
	record := func(pkg ResolvedPackage) {
		at, ok := position[pkg.Name]
		if !ok {
			position[pkg.Name] = len(resolved)
			resolved = append(resolved, pkg)
			return
		}
		prev := resolved[at]
		if pkg.Kind == KindChannel {
			log.Infof("channel resolution %s %s for %q ignored: secondary index entry takes precedence",
				pkg.Channel, pkg.Version, pkg.Name)
			return
		}
		log.Infof("secondary index entry for %q overrides channel resolution %s %s",
			pkg.Name, prev.Channel, prev.Version)
		resolved[at] = pkg
	}

	for _, dep := range desc.Dependencies {
		switch v := dep.(type) {
		case envspec.ChannelPackage:
			pkg, err := resolveChannelPackage(v, channelOrder(desc, snap))
			if err != nil {
				return nil, err
			}
			record(pkg)
			advance(v.Name)

		case envspec.SecondaryGroup:
			for _, entry := range v.Entries {
				switch e := entry.(type) {
				case envspec.VersionedPackage:
					pkg, err := resolveSecondaryPackage(e, snap.Indexes)
					if err != nil {
						return nil, err
					}
					record(pkg)
					advance(e.Name)
				case envspec.SourceReference:
					record(ResolvedPackage{
						Name:    e.PackageName(),
						Version: e.Revision,
						Channel: e.RepositoryURL,
						Kind:    KindSource,
					})
					advance(e.PackageName())
				}
			}
		}
	}

	if bar != nil {
		if err := bar.Finish(); err != nil {
			log.Errorf("failed to finish progress bar: %v", err)
		}
	}

	log.Infof("resolved %d packages for environment %q", len(resolved), desc.Name)
	return resolved, nil
}

// channelOrder returns the channel indexes to consult, in priority order.
// With no channels declared, every snapshot channel is consulted in mirror
// order.
func channelOrder(desc *envspec.Descriptor, snap *index.Snapshot) []*index.ChannelIndex {
	if len(desc.Channels) == 0 {
		order := make([]*index.ChannelIndex, 0, len(snap.Channels))
		for i := range snap.Channels {
			order = append(order, &snap.Channels[i])
		}
		return order
	}

	var order []*index.ChannelIndex
	for _, name := range desc.Channels {
		if ci := snap.Channel(name); ci != nil {
			order = append(order, ci)
		} else {
			log.Warnf("channel %q not present in snapshot, skipping", name)
		}
	}
	return order
}

func resolveChannelPackage(pkg envspec.ChannelPackage, channels []*index.ChannelIndex) (ResolvedPackage, error) {
	for _, ch := range channels {
		if !ch.Has(pkg.Name) {
			continue
		}
		version, ok := pickVersion(ch.Versions(pkg.Name), pkg.Constraint)
		if !ok {
			return ResolvedPackage{}, &UnsatisfiableError{
				Name:       pkg.Name,
				Constraint: constraintString(pkg.Constraint),
				Channel:    ch.Name,
			}
		}
		return ResolvedPackage{
			Name:    pkg.Name,
			Version: version,
			Channel: ch.Name,
			Kind:    KindChannel,
		}, nil
	}
	return ResolvedPackage{}, &NotFoundError{Name: pkg.Name}
}

func resolveSecondaryPackage(pkg envspec.VersionedPackage, indexes []index.ChannelIndex) (ResolvedPackage, error) {
	for i := range indexes {
		idx := &indexes[i]
		if !idx.Has(pkg.Name) {
			continue
		}
		version, ok := pickVersion(idx.Versions(pkg.Name), pkg.Constraint)
		if !ok {
			return ResolvedPackage{}, &UnsatisfiableError{
				Name:       pkg.Name,
				Constraint: constraintString(pkg.Constraint),
				Channel:    idx.Name,
			}
		}
		return ResolvedPackage{
			Name:    pkg.Name,
			Version: version,
			Channel: idx.Name,
			Kind:    KindSecondary,
		}, nil
	}
	return ResolvedPackage{}, &NotFoundError{Name: pkg.Name}
}

// pickVersion returns the highest published version satisfying the
// constraint. Versions that do not parse are skipped.
func pickVersion(published []string, cons *envspec.Constraint) (string, bool) {
	var best *semver.Version
	var bestRaw string

	for _, raw := range published {
		v, err := semver.NewVersion(raw)
		if err != nil {
			log.Debugf("skipping unparsable version %q: %v", raw, err)
			continue
		}
		if cons != nil {
			ok, err := cons.Satisfies(raw)
			if err != nil {
				log.Debugf("skipping version %q: %v", raw, err)
				continue
			}
			if !ok {
				continue
			}
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}

	if best == nil {
		return "", false
	}
	return bestRaw, true
}

func constraintString(c *envspec.Constraint) string {
	if c == nil {
		return "any"
	}
	return c.String()
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSpinnerType(10),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
