package meterhub

import "strings"

type filterDecision int8

const (
	decisionAccept filterDecision = iota
	decisionDeny
	decisionReplace
)

// FilterResult is the decision a Filter returns for a candidate id:
// accept it unchanged, deny it, or replace it with a rewritten id.
type FilterResult struct {
	decision filterDecision
	id       ID
}

// Accept keeps the id as the filter received it.
func Accept() FilterResult {
	return FilterResult{decision: decisionAccept}
}

// Deny suppresses the meter. Denial is not an error: recordings against a
// denied id land on a no-op instrument.
func Deny() FilterResult {
	return FilterResult{decision: decisionDeny}
}

// Replace substitutes the id for all later filters and for the final
// registration.
func Replace(id ID) FilterResult {
	return FilterResult{decision: decisionReplace, id: id}
}

// Filter is a registration-time transform over meter ids. Filters must be
// deterministic and return a decision for every id; they run in registration
// order and the first Deny short-circuits the chain.
type Filter func(id ID) FilterResult

// ApplyFilters folds the chain left-to-right over the candidate id. Each
// filter sees the possibly-already-rewritten id from the previous step.
// The second return value is false when some filter denied the id.
func ApplyFilters(filters []Filter, id ID) (ID, bool) {
	for _, filter := range filters {
		result := filter(id)
		switch result.decision {
		case decisionDeny:
			return id, false
		case decisionReplace:
			id = result.id
		}
	}

	return id, true
}

// DenyNamePrefix denies every id whose name starts with prefix.
func DenyNamePrefix(prefix string) Filter {
	return func(id ID) FilterResult {
		if strings.HasPrefix(id.Name, prefix) {
			return Deny()
		}

		return Accept()
	}
}

// AcceptNamePrefix denies every id whose name does not start with prefix.
func AcceptNamePrefix(prefix string) Filter {
	return func(id ID) FilterResult {
		if strings.HasPrefix(id.Name, prefix) {
			return Accept()
		}

		return Deny()
	}
}

// DenyKind denies every id of the given kind.
func DenyKind(kind Kind) Filter {
	return func(id ID) FilterResult {
		if id.Kind == kind {
			return Deny()
		}

		return Accept()
	}
}

// RenameMeter rewrites ids named from to carry the name to.
func RenameMeter(from, to string) Filter {
	return func(id ID) FilterResult {
		if id.Name != from {
			return Accept()
		}

		return Replace(id.WithName(to))
	}
}

// AddTag stamps a tag onto every id. An instance tag under the same key is
// preserved.
func AddTag(key, value string) Filter {
	return func(id ID) FilterResult {
		if _, ok := id.Tags[key]; ok {
			return Accept()
		}

		return Replace(id.WithTag(key, value))
	}
}

// RenameTag moves the value of tag key from to key to on ids whose name
// starts with namePrefix.
func RenameTag(namePrefix, from, to string) Filter {
	return func(id ID) FilterResult {
		if !strings.HasPrefix(id.Name, namePrefix) {
			return Accept()
		}
		value, ok := id.Tags[from]
		if !ok {
			return Accept()
		}

		tags := id.Tags.Copy()
		delete(tags, from)
		tags[to] = value

		return Replace(id.WithTags(tags))
	}
}

// MapID applies an arbitrary id rewrite.
func MapID(fn func(id ID) ID) Filter {
	return func(id ID) FilterResult {
		return Replace(fn(id))
	}
}
