package envspec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/open-geo-platform/env-composer/internal/config/validate"
	"github.com/open-geo-platform/env-composer/internal/utils/logger"
	"github.com/open-geo-platform/env-composer/internal/utils/security"
	yamlv3 "gopkg.in/yaml.v3"
	sigyaml "sigs.k8s.io/yaml"
)

// GroupMarker is the recognized secondary-index group key in the manifest
// dependency list.
const GroupMarker = "pip"

var log = logger.Logger()

// rawDescriptor is the loosely-typed shape the YAML document is decoded
// into before classification.
type rawDescriptor struct {
	Name         string        `yaml:"name"`
	Channels     []string      `yaml:"channels"`
	Dependencies []interface{} `yaml:"dependencies"`
}

// Load parses a manifest document into an immutable Descriptor. Any
// malformed entry aborts the whole load; no partial descriptor is ever
// returned.
func Load(data []byte) (*Descriptor, error) {
	// Convert to JSON and validate the document structure against the
	// embedded schema before touching individual entries.
	jsonData, err := sigyaml.YAMLToJSON(data)
	if err != nil {
		log.Errorf("Invalid YAML format: manifest parsing failed: %v", err)
		return nil, &MalformedDescriptorError{Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if err := validate.ValidateEnvironmentJSON(jsonData); err != nil {
		return nil, &MalformedDescriptorError{Reason: err.Error()}
	}

	var raw rawDescriptor
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		log.Errorf("Manifest parsing failed: invalid structure: %v", err)
		return nil, &MalformedDescriptorError{Reason: fmt.Sprintf("invalid structure: %v", err)}
	}

	lim := security.DefaultLimits()
	if err := security.ValidateString("name", raw.Name, lim); err != nil {
		return nil, &MalformedDescriptorError{Key: "name", Reason: err.Error()}
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, &MalformedDescriptorError{Key: "name", Reason: "must be a non-empty string"}
	}

	desc := &Descriptor{Name: raw.Name}

	for i, ch := range raw.Channels {
		if err := security.ValidateString(fmt.Sprintf("channels[%d]", i), ch, lim); err != nil {
			return nil, &MalformedDescriptorError{Key: "channels", Reason: err.Error()}
		}
		desc.Channels = append(desc.Channels, ch)
	}

	seen := map[string]bool{}
	seenSecondary := map[string]bool{}
	for _, entry := range raw.Dependencies {
		dep, err := classifyEntry(entry, lim, seen, seenSecondary)
		if err != nil {
			return nil, err
		}
		desc.Dependencies = append(desc.Dependencies, dep)
	}

	log.Debugf("loaded environment descriptor %q: %d channels, %d dependencies",
		desc.Name, len(desc.Channels), desc.DependencyCount())
	return desc, nil
}

// LoadFile reads and parses a manifest file. Only YAML manifests are
// supported.
func LoadFile(path string) (*Descriptor, error) {
	data, err := security.SafeReadFile(path, security.RejectSymlinks)
	if err != nil {
		log.Errorf("Failed to read manifest file: %v", err)
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yml" && ext != ".yaml" {
		log.Errorf("Unsupported file format: %s", ext)
		return nil, fmt.Errorf("unsupported file format: %s (only .yml and .yaml are supported)", ext)
	}

	desc, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest %s: %w", path, err)
	}
	return desc, nil
}

// classifyEntry turns one dependency list element into its typed variant.
// seen tracks channel package names across the top-level list and
// seenSecondary tracks secondary names across every group, so duplicates are
// rejected rather than silently shadowed.
func classifyEntry(entry interface{}, lim security.Limits, seen, seenSecondary map[string]bool) (DependencySpec, error) {
	switch v := entry.(type) {
	case string:
		if err := security.ValidateString("dependency", v, lim); err != nil {
			return nil, &InvalidConstraintError{Entry: v, Reason: err.Error()}
		}
		name, cons, err := splitConstraint(v)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, &DuplicatePackageError{Name: name}
		}
		seen[name] = true
		return ChannelPackage{Name: name, Constraint: cons}, nil

	case map[string]interface{}:
		if len(v) != 1 {
			return nil, &InvalidConstraintError{
				Entry:  fmt.Sprintf("%v", v),
				Reason: "group entry must have exactly one marker key",
			}
		}
		for key, val := range v {
			if key != GroupMarker {
				return nil, &InvalidConstraintError{
					Entry:  key,
					Reason: fmt.Sprintf("unrecognized group marker (expected %q)", GroupMarker),
				}
			}
			items, ok := val.([]interface{})
			if !ok {
				return nil, &MalformedDescriptorError{
					Key:    GroupMarker,
					Reason: "group value must be a sequence of strings",
				}
			}
			return classifyGroup(items, lim, seenSecondary)
		}
		return nil, &InvalidConstraintError{Entry: fmt.Sprintf("%v", v), Reason: "empty group entry"}

	default:
		return nil, &InvalidConstraintError{
			Entry:  fmt.Sprintf("%v", entry),
			Reason: "entry is neither a string nor a secondary-index group",
		}
	}
}

// classifyGroup classifies the child sequence of a secondary-index group,
// using the same per-entry rules plus source-control locator recognition.
// seen spans every group in the manifest, so a name repeated across two
// groups is rejected like a repeat within one.
func classifyGroup(items []interface{}, lim security.Limits, seen map[string]bool) (DependencySpec, error) {
	group := SecondaryGroup{}

	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &MalformedDescriptorError{
				Key:    GroupMarker,
				Reason: fmt.Sprintf("group entry %v is not a string", item),
			}
		}
		if err := security.ValidateString("group dependency", s, lim); err != nil {
			return nil, &InvalidConstraintError{Entry: s, Reason: err.Error()}
		}

		if isSourceEntry(s) {
			ref, err := parseSourceReference(s)
			if err != nil {
				return nil, err
			}
			name := ref.PackageName()
			if seen[name] {
				return nil, &DuplicatePackageError{Name: name}
			}
			seen[name] = true
			group.Entries = append(group.Entries, ref)
			continue
		}

		name, cons, err := splitConstraint(s)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, &DuplicatePackageError{Name: name}
		}
		seen[name] = true
		group.Entries = append(group.Entries, VersionedPackage{Name: name, Constraint: cons})
	}

	return group, nil
}
