package state

import (
	"encoding/json"
	"slices"
)

// LocationSet is a set of location ids, serialized as a sorted JSON array.
type LocationSet map[string]struct{}

func (s LocationSet) Add(id string) {
	s[id] = struct{}{}
}

func (s LocationSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order.
func (s LocationSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s LocationSet) Clone() LocationSet {
	if s == nil {
		return nil
	}
	c := make(LocationSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

func (s LocationSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *LocationSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	set := make(LocationSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	*s = set
	return nil
}
