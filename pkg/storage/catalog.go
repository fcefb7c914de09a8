package storage

import (
	"fmt"
	"sort"
)

// IndexKey identifies an index by label and property.
type IndexKey struct {
	Label    string
	Property string
}

func (k IndexKey) String() string {
	return fmt.Sprintf(":%s(%s)", k.Label, k.Property)
}

// Catalog is an immutable registry of indexes. Every graph version carries
// its own Catalog, so a planner holding a snapshot sees a stable set.
type Catalog struct {
	indexes map[IndexKey]*Index
}

var emptyCatalog = &Catalog{indexes: map[IndexKey]*Index{}}

// Lookup returns the index for (label, property), if any.
func (c *Catalog) Lookup(label, property string) (*Index, bool) {
	if c == nil {
		return nil, false
	}
	idx, ok := c.indexes[IndexKey{Label: label, Property: property}]
	return idx, ok
}

// Len returns the number of indexes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.indexes)
}

// Keys returns the index keys ordered by label, then property.
func (c *Catalog) Keys() []IndexKey {
	if c == nil {
		return nil
	}
	keys := make([]IndexKey, 0, len(c.indexes))
	for k := range c.indexes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Label != keys[j].Label {
			return keys[i].Label < keys[j].Label
		}
		return keys[i].Property < keys[j].Property
	})
	return keys
}

func (c *Catalog) clone() map[IndexKey]*Index {
	m := make(map[IndexKey]*Index, c.Len()+1)
	if c != nil {
		for k, v := range c.indexes {
			m[k] = v
		}
	}
	return m
}
