package rule

import (
	"fmt"
	"sort"
)

// Registry holds the known rules keyed by name.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule. Registering the same name twice is an error.
func (r *Registry) Register(rule Rule) error {
	name := rule.Name()
	if name == "" {
		return fmt.Errorf("rule has empty name")
	}
	if _, exists := r.rules[name]; exists {
		return fmt.Errorf("rule %q already registered", name)
	}
	r.rules[name] = rule
	return nil
}

// Get returns the rule with the given name.
func (r *Registry) Get(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// Names returns all registered rule names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered rules in name order.
func (r *Registry) All() []Rule {
	names := r.Names()
	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		rules = append(rules, r.rules[name])
	}
	return rules
}
