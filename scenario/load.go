package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML (.yaml, .yml) or JSON (.json) file holding a single scenario or a list of scenarios.
// Every scenario is validated.
func LoadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	var scenarios []Scenario
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		scenarios, err = decodeJSON(data)
	case ".yaml", ".yml":
		scenarios, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported scenario format %q (expected .json, .yaml, or .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenario %s: no scenarios defined", path)
	}
	for i := range scenarios {
		if err := scenarios[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return scenarios, nil
}

// LoadDir loads every scenario file in `dir`, in file name order. Subdirectories are ignored.
// Scenario names must be unique across the directory.
func LoadDir(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var scenarios []Scenario
	seen := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		path := filepath.Join(dir, name)
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, s := range loaded {
			if prev, ok := seen[s.Name]; ok {
				return nil, fmt.Errorf("scenario '%s' defined in both %s and %s", s.Name, prev, path)
			}
			seen[s.Name] = path
		}
		scenarios = append(scenarios, loaded...)
	}

	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	return scenarios, nil
}

func decodeJSON(data []byte) ([]Scenario, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Scenario
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var s Scenario
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	return []Scenario{s}, nil
}

func decodeYAML(data []byte) ([]Scenario, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []Scenario
		if err := root.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var s Scenario
	if err := root.Decode(&s); err != nil {
		return nil, err
	}
	return []Scenario{s}, nil
}
