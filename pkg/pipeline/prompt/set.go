package prompt

import (
	"fmt"
	"slices"
)

var strict = NewExpander(WithMissingAction(MissingError))

// Set is a collection of named templates.
type Set struct {
	templates map[string]string
}

// NewSet creates a Set seeded with defaults.
func NewSet(defaults map[string]string) *Set {
	s := &Set{templates: make(map[string]string, len(defaults))}
	for name, text := range defaults {
		s.templates[name] = text
	}
	return s
}

// Override replaces the template registered under name.
// Overriding an unknown name is an error, so typos in configuration are caught.
// The replacement must not reference variables the default does not provide.
func (s *Set) Override(name, text string) error {
	current, ok := s.templates[name]
	if !ok {
		return fmt.Errorf("unknown prompt template %q", name)
	}
	known := Variables(current)
	for _, v := range Variables(text) {
		if !slices.Contains(known, v) {
			return fmt.Errorf("prompt template %q: %w", name, &UndefinedVariableError{Names: []string{v}})
		}
	}
	s.templates[name] = text
	return nil
}

// Render expands the named template. Undefined variables are an error.
func (s *Set) Render(name string, vars map[string]any) (string, error) {
	text, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	out, err := strict.Expand(text, vars)
	if err != nil {
		return "", fmt.Errorf("prompt template %q: %w", name, err)
	}
	return out, nil
}

// Names returns the registered template names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
