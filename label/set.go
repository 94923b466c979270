package label

import (
	"encoding/json"
	"sort"
	"strings"
)

// Set is an immutable set of labels.
// The zero value is the empty set.
type Set struct {
	m map[Label]struct{}
}

// NewSet returns a set holding the canonical form of each label.
// Empty labels are dropped.
func NewSet(labels ...Label) Set {
	var m map[Label]struct{}
	for _, l := range labels {
		l = New(string(l))
		if l == "" {
			continue
		}
		if m == nil {
			m = make(map[Label]struct{}, len(labels))
		}
		m[l] = struct{}{}
	}
	return Set{m: m}
}

// ParseSet builds a set from raw strings, such as flag or config values.
func ParseSet(raw ...string) Set {
	labels := make([]Label, len(raw))
	for i, s := range raw {
		labels[i] = Label(s)
	}
	return NewSet(labels...)
}

func (s Set) Len() int {
	return len(s.m)
}

func (s Set) Empty() bool {
	return len(s.m) == 0
}

// Has reports whether s holds l, compared in canonical form.
func (s Set) Has(l Label) bool {
	return s.has(New(string(l)))
}

func (s Set) has(l Label) bool {
	_, ok := s.m[l]
	return ok
}

// SubsetOf reports whether every label of s is also in other.
func (s Set) SubsetOf(other Set) bool {
	for l := range s.m {
		if !other.has(l) {
			return false
		}
	}
	return true
}

// Intersects reports whether s and other share at least one label.
func (s Set) Intersects(other Set) bool {
	_, ok := s.FirstCommon(other)
	return ok
}

// FirstCommon returns the lexically smallest label present in both sets.
func (s Set) FirstCommon(other Set) (Label, bool) {
	small, large := s, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	var (
		found Label
		ok    bool
	)
	for l := range small.m {
		if !large.has(l) {
			continue
		}
		if !ok || l < found {
			found, ok = l, true
		}
	}
	return found, ok
}

// Union returns a new set holding the labels of s and other.
func (s Set) Union(other Set) Set {
	if other.Empty() {
		return s
	}
	if s.Empty() {
		return other
	}
	m := make(map[Label]struct{}, len(s.m)+len(other.m))
	for l := range s.m {
		m[l] = struct{}{}
	}
	for l := range other.m {
		m[l] = struct{}{}
	}
	return Set{m: m}
}

// Equal reports whether both sets hold exactly the same labels.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	return s.SubsetOf(other)
}

// Labels returns the labels in lexical order.
// The returned slice is a copy.
func (s Set) Labels() []Label {
	out := make([]Label, 0, len(s.m))
	for l := range s.m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) String() string {
	labels := s.Labels()
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Labels())
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var labels []Label
	if err := json.Unmarshal(b, &labels); err != nil {
		return err
	}
	*s = NewSet(labels...)
	return nil
}
