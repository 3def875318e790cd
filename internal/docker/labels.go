package docker

import (
	"github.com/docker/docker/api/types/filters"
)

const (
	namespaceLabel    = "apicheck_namespace"
	collaboratorLabel = "apicheck_collaborator"
)

// label returns a filter for the presence of certain labels ("apicheck_namespace") or a match of
// labels ("apicheck_namespace=foo").
func label(labelFilters ...string) filters.Args {
	f := filters.NewArgs()
	// label=<key> or label=<key>=<value>
	for _, in := range labelFilters {
		f.Add("label", in)
	}
	return f
}

// reference returns a filter matching images by name, e.g. "kennethreitz/httpbin:latest".
func reference(ref string) filters.Args {
	return filters.NewArgs(filters.Arg("reference", ref))
}

func labelsFor(namespace, collaborator string) map[string]string {
	return map[string]string{
		namespaceLabel:    namespace,
		collaboratorLabel: collaborator,
	}
}
