package schema

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/formwork/pkg/domain"
)

// Registry holds named rules that descriptors can refer to by name, so that
// definitions loaded from files can use checks written in Go.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]Rule),
	}
}

// Register adds a rule under its name.
// If a rule with the same name exists, it is overwritten.
func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Name()] = rule
}

// RegisterFunc registers fn as a custom rule called name.
func (r *Registry) RegisterFunc(name string, fn func(any) error) {
	r.Register(Custom(name, fn))
}

// Lookup returns the rule registered as name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Names returns the registered rule names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve is like the package level Resolve, but textual rules that are not
// built in are looked up in the registry. Built-in names take precedence.
func (r *Registry) Resolve(field string, d domain.Rule) (Rule, error) {
	return resolve(field, d, r.parse)
}

func (r *Registry) parse(text string) (Rule, error) {
	rule, err := ParseRule(text)
	if err == nil {
		return rule, nil
	}
	if rule, ok := r.Lookup(text); ok {
		return rule, nil
	}
	return nil, fmt.Errorf("unknown rule %q", text)
}
