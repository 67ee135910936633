package meterhub

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind discriminates the three supported meter variants. The set is
// deliberately closed: new instrument kinds are a design decision, not an
// extension point.
type Kind int8

const (
	KindCounter Kind = iota
	KindTimer
	KindGauge
)

func (kind Kind) String() string {
	switch kind {
	case KindCounter:
		return "counter"
	case KindTimer:
		return "timer"
	case KindGauge:
		return "gauge"
	}

	return fmt.Sprintf("unknown(%d)", int8(kind))
}

var meterNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// ValidateMeterName checks a name against the canonical-name rules: non-empty,
// characters limited to letters, digits, underscores and dots.
func ValidateMeterName(name string) error {
	if name == "" {
		return ErrEmptyMeterName
	}
	if !meterNameRegex.MatchString(name) {
		return fmt.Errorf("meter name %q contains non-allowed characters: %w", name, ErrInvalidMeterName)
	}

	return nil
}

// ID is a meter's identity: name, tags and kind. Description and BaseUnit are
// metadata only and never participate in identity comparisons.
type ID struct {
	Name        string
	Kind        Kind
	Tags        Tags
	Description string
	BaseUnit    string
}

// NewID builds an identity for the given name, kind and tags. A nil tag set
// is treated as empty.
func NewID(name string, kind Kind, tags Tags) ID {
	if tags == nil {
		tags = Tags{}
	}

	return ID{Name: name, Kind: kind, Tags: tags}
}

// Equal reports structural identity: name, kind and tags all match.
// Metadata is ignored.
func (id ID) Equal(other ID) bool {
	return id.Name == other.Name && id.Kind == other.Kind && id.Tags.Equal(other.Tags)
}

// WithName returns a copy of the id under a different name. Used by renaming
// filters.
func (id ID) WithName(name string) ID {
	id.Name = name
	return id
}

// WithTags returns a copy of the id with the tag set replaced.
func (id ID) WithTags(tags Tags) ID {
	if tags == nil {
		tags = Tags{}
	}
	id.Tags = tags.Copy()

	return id
}

// WithTag returns a copy of the id with one tag added or overwritten.
func (id ID) WithTag(key, value string) ID {
	tags := id.Tags.Copy()
	tags[key] = value
	id.Tags = tags

	return id
}

func (id ID) String() string {
	pairs := make([]string, 0, len(id.Tags))
	for _, key := range id.Tags.SortedKeys() {
		pairs = append(pairs, key+"="+id.Tags[key])
	}

	return fmt.Sprintf("%s{%s} %s", id.Name, strings.Join(pairs, ","), id.Kind)
}

// mapKey is the registry lookup key. Kind is excluded so that registering the
// same name+tags under a different kind lands on the existing entry and can be
// reported as a conflict instead of silently coexisting.
func (id ID) mapKey() string {
	return id.Name + "\x1d" + id.Tags.canonical()
}
