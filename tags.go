package meterhub

import (
	"sort"
	"strings"
)

// Tags is a set of key/value string pairs identifying a meter instance.
// Keys are unique, comparison is order-independent. Empty keys and values
// are permitted.
type Tags map[string]string

// MergeTags returns the right-biased union of common and instance tags:
// when both define the same key, the instance value wins. The arguments
// are never modified.
func MergeTags(common, instance Tags) Tags {
	if len(common) == 0 && len(instance) == 0 {
		return Tags{}
	}

	merged := make(Tags, len(common)+len(instance))
	for key, value := range common {
		merged[key] = value
	}
	for key, value := range instance {
		merged[key] = value
	}

	return merged
}

// Copy returns an independent copy of the tag set.
func (tags Tags) Copy() Tags {
	copied := make(Tags, len(tags))
	for key, value := range tags {
		copied[key] = value
	}

	return copied
}

// SortedKeys returns the tag keys in lexicographic order.
func (tags Tags) SortedKeys() []string {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Equal reports whether two tag sets contain exactly the same pairs.
func (tags Tags) Equal(other Tags) bool {
	if len(tags) != len(other) {
		return false
	}
	for key, value := range tags {
		otherValue, ok := other[key]
		if !ok || otherValue != value {
			return false
		}
	}

	return true
}

// canonical serializes the tag set into a deterministic form used for
// identity keys. Separators are control characters so arbitrary tag
// content cannot collide with the encoding.
func (tags Tags) canonical() string {
	if len(tags) == 0 {
		return ""
	}

	builder := strings.Builder{}
	for i, key := range tags.SortedKeys() {
		if i > 0 {
			builder.WriteByte(0x1e)
		}
		builder.WriteString(key)
		builder.WriteByte(0x1f)
		builder.WriteString(tags[key])
	}

	return builder.String()
}
