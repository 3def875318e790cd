// Package suite contains the canonical contract checks for every collaborator.
package suite

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/scenario"
)

// Known maps each suite name to the function building its scenarios.
var Known = map[string]func() []scenario.Scenario{
	config.GitHub:      GitHub,
	config.Placeholder: Placeholder,
	config.Echo:        Echo,
}

// Names returns the suite names in sorted order.
func Names() []string {
	names := maps.Keys(Known)
	slices.Sort(names)
	return names
}

// All returns every scenario of every suite.
func All() []scenario.Scenario {
	var all []scenario.Scenario
	all = append(all, GitHub()...)
	all = append(all, Placeholder()...)
	all = append(all, Echo()...)
	return all
}

// Select returns the scenarios of the named suites, in the order given. No names selects everything.
func Select(names ...string) ([]scenario.Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}
	var selected []scenario.Scenario
	for _, name := range names {
		fn, ok := Known[name]
		if !ok {
			return nil, fmt.Errorf("unknown suite '%s', want one of %v", name, Names())
		}
		selected = append(selected, fn()...)
	}
	return selected, nil
}

func get(url string, expect ...scenario.Expectation) scenario.Step {
	return scenario.Step{Method: "GET", URL: url, Expect: expect}
}

func single(name, collaborator string, step scenario.Step) scenario.Scenario {
	return scenario.Scenario{Name: name, Collaborator: collaborator, Steps: []scenario.Step{step}}
}
