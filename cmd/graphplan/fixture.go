package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/graphplan/pkg/storage"
	"github.com/dd0wney/graphplan/pkg/validation"
)

// fixture is a YAML description of nodes and indexes:
//
//	indexes:
//	  - {label: person, property: age}
//	nodes:
//	  - labels: [person]
//	    properties: {name: Ada, age: 36}
type fixture struct {
	Indexes []validation.IndexRequest `yaml:"indexes"`
	Nodes   []validation.NodeRequest  `yaml:"nodes"`
}

type loadStats struct {
	nodes   int
	indexes int
}

func readFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	for i := range f.Indexes {
		if err := validation.ValidateIndexRequest(&f.Indexes[i]); err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
	}
	return &f, nil
}

// apply writes the fixture in a single transaction, so a bad node leaves
// the graph untouched.
func (f *fixture) apply(g *storage.Graph) (loadStats, error) {
	var stats loadStats
	err := g.Update(func(tx *storage.Tx) error {
		for i := range f.Nodes {
			n := &f.Nodes[i]
			if err := validation.ValidateNodeRequest(n); err != nil {
				return fmt.Errorf("node %d: %w", i, err)
			}
			props := make(map[string]storage.Value, len(n.Properties))
			for k, raw := range n.Properties {
				v, err := storage.ValueFromNative(raw)
				if err != nil {
					return fmt.Errorf("node %d property %s: %w", i, k, err)
				}
				props[k] = v
			}
			if _, err := tx.CreateNode(n.Labels, props); err != nil {
				return fmt.Errorf("node %d: %w", i, err)
			}
			stats.nodes++
		}
		for _, idx := range f.Indexes {
			created, err := tx.CreateIndex(idx.Label, idx.Property)
			if err != nil {
				return err
			}
			if created {
				stats.indexes++
			}
		}
		return nil
	})
	if err != nil {
		return loadStats{}, err
	}
	return stats, nil
}

func socialFixture() *fixture {
	f := &fixture{
		Indexes: []validation.IndexRequest{{Label: "person", Property: "age"}},
	}
	people := []struct {
		name string
		age  int
	}{
		{"Ada", 24}, {"Grace", 35}, {"Edsger", 41}, {"Barbara", 29}, {"Donald", 52},
	}
	for _, p := range people {
		f.Nodes = append(f.Nodes, validation.NodeRequest{
			Labels:     []string{"person"},
			Properties: map[string]any{"name": p.name, "age": p.age},
		})
	}
	for _, name := range []string{"A", "B", "C"} {
		f.Nodes = append(f.Nodes, validation.NodeRequest{
			Labels:     []string{"country"},
			Properties: map[string]any{"name": name},
		})
	}
	return f
}
