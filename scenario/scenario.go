// Package scenario contains the declarative model of a contract check: which collaborator to talk to, which
// requests to make, and what each response must look like.
//
// Scenarios are plain data. They are built in code by the suite package or loaded from YAML/JSON files, and a
// runner never mutates them while running.
package scenario

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Methods lists the HTTP verbs a step may use.
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

var varNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Vars holds the values stored by earlier steps of a scenario, keyed by variable name.
type Vars map[string]gjson.Result

// Scenario is one named contract check against a single collaborator.
type Scenario struct {
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	Collaborator string `yaml:"collaborator" json:"collaborator"`
	Steps        []Step `yaml:"steps" json:"steps"`
	// Tolerate lists conditions which mark the scenario SKIPPED rather than failed.
	Tolerate Tolerance `yaml:"tolerate,omitempty" json:"tolerate,omitempty"`
	// TimeoutSecs overrides the configured per-scenario timeout when non-zero.
	TimeoutSecs int `yaml:"timeout_secs,omitempty" json:"timeout_secs,omitempty"`
}

// Tolerance describes collaborator conditions which are outside the control of the check.
type Tolerance struct {
	// TransportFailure tolerates DNS, TCP, TLS and timeout errors.
	TransportFailure bool  `yaml:"transport_failure,omitempty" json:"transport_failure,omitempty"`
	Statuses         []int `yaml:"statuses,omitempty" json:"statuses,omitempty"`
}

// ToleratesStatus reports whether a response with `code` skips the scenario.
func (t Tolerance) ToleratesStatus(code int) bool {
	for _, s := range t.Statuses {
		if s == code {
			return true
		}
	}
	return false
}

// Step is a single HTTP request of a scenario and the expectations on its response.
type Step struct {
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Method string `yaml:"method" json:"method"`
	// URL is relative to the collaborator base URL, or absolute. It may contain $var placeholders which are
	// replaced by values stored from earlier steps.
	URL     string            `yaml:"url" json:"url"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Query   map[string]string `yaml:"query,omitempty" json:"query,omitempty"`
	// Body is marshalled as the JSON request body.
	Body interface{} `yaml:"body,omitempty" json:"body,omitempty"`
	Auth *Auth       `yaml:"auth,omitempty" json:"auth,omitempty"`
	// BodyVars splices stored values into the body. The key is an sjson path into the body, the value is a
	// variable name.
	BodyVars map[string]string `yaml:"body_vars,omitempty" json:"body_vars,omitempty"`
	// Store extracts values from the response for later steps. The key is a variable name, the value a gjson path.
	Store  map[string]string `yaml:"store,omitempty" json:"store,omitempty"`
	Expect []Expectation     `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Auth holds per-step credentials. At most one of Basic and Bearer may be set.
type Auth struct {
	Basic  *BasicAuth `yaml:"basic,omitempty" json:"basic,omitempty"`
	Bearer string     `yaml:"bearer,omitempty" json:"bearer,omitempty"`
}

type BasicAuth struct {
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
}

// Label returns the step name, or "METHOD URL" if it has none.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Method + " " + s.URL
}

// Timeout returns the scenario timeout, or `def` if the scenario does not set one.
func (s *Scenario) Timeout(def time.Duration) time.Duration {
	if s.TimeoutSecs > 0 {
		return time.Duration(s.TimeoutSecs) * time.Second
	}
	return def
}

// ExpectationCount returns the number of top-level expectations across all steps.
func (s *Scenario) ExpectationCount() int {
	n := 0
	for _, st := range s.Steps {
		n += len(st.Expect)
	}
	return n
}

// Validate checks that the scenario can be run: every step has a known verb and a URL which parses, every
// expectation is well formed, and every variable is stored before it is used.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}
	if s.Collaborator == "" {
		return fmt.Errorf("scenario '%s': collaborator is required", s.Name)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario '%s': at least one step is required", s.Name)
	}
	stored := map[string]bool{}
	for i, st := range s.Steps {
		ctx := fmt.Sprintf("scenario '%s' step %d (%s)", s.Name, i, st.Label())
		if !validMethod(st.Method) {
			return fmt.Errorf("%s: unsupported method '%s', want one of %s", ctx, st.Method, strings.Join(Methods, ", "))
		}
		if err := validateURL(st.URL); err != nil {
			return fmt.Errorf("%s: %w", ctx, err)
		}
		for _, name := range placeholders(st.URL) {
			if !stored[name] {
				return fmt.Errorf("%s: URL uses $%s which no earlier step stores", ctx, name)
			}
		}
		for path, name := range st.BodyVars {
			if !stored[name] {
				return fmt.Errorf("%s: body path '%s' uses '%s' which no earlier step stores", ctx, path, name)
			}
		}
		if st.Auth != nil && st.Auth.Basic != nil && st.Auth.Bearer != "" {
			return fmt.Errorf("%s: auth sets both basic and bearer credentials", ctx)
		}
		for j := range st.Expect {
			if err := st.Expect[j].validate(false); err != nil {
				return fmt.Errorf("%s expectation %d: %w", ctx, j, err)
			}
		}
		for name := range st.Store {
			if !varNameRegex.MatchString(name) {
				return fmt.Errorf("%s: invalid variable name '%s'", ctx, name)
			}
		}
		// variables become visible to the steps after this one
		for name := range st.Store {
			stored[name] = true
		}
	}
	return nil
}

func validMethod(m string) bool {
	for _, v := range Methods {
		if m == v {
			return true
		}
	}
	return false
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url '%s' is invalid: %w", raw, err)
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("url '%s' has unsupported scheme '%s'", raw, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("url '%s' has no host", raw)
		}
	} else if u.Host != "" {
		return fmt.Errorf("url '%s' has a host but no scheme", raw)
	}
	return nil
}

var placeholderRegex = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// placeholders returns the variable names referenced as $name in `s`.
func placeholders(s string) []string {
	var names []string
	for _, m := range placeholderRegex.FindAllStringSubmatch(s, -1) {
		names = append(names, m[1])
	}
	return names
}

// SubstituteURL replaces every $name in `template` with the textual form of the stored value, path escaped.
// Longer names are replaced first so $post does not clobber $post_id.
func SubstituteURL(template string, vars Vars) string {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		template = strings.ReplaceAll(template, "$"+name, url.PathEscape(vars[name].String()))
	}
	return template
}
