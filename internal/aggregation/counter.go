package aggregation

import "sort"

// counter is a frequency map that remembers first-seen order.
// It is built fresh for every computation and never shared.
type counter struct {
	index   map[string]int
	entries []Count
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.entries[i].Count++
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, Count{Key: key, Count: 1})
}

func (c *counter) addAll(keys []string) {
	for _, k := range keys {
		c.add(k)
	}
}

// ranked returns the entries by count descending. Ties keep first-seen order.
func (c *counter) ranked() []Count {
	out := make([]Count, len(c.entries))
	copy(out, c.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// orderedSet keeps distinct strings in first-seen order
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: make([]string, 0)}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
