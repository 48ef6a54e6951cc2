// Package taxonomy holds the catalogue of policy-violation classes used to drive
// taxonomy classification. A Registry is built once at startup and is read-only
// thereafter; every accessor returns copies so callers cannot mutate it.
package taxonomy

import "slices"

// DefaultTag is the presentation tag for classes without an explicit mapping.
const DefaultTag = "🏷️"

// PolicyClass is a named policy-violation class with the natural-language
// descriptor prompts the remote classifier matches against.
type PolicyClass struct {
	Name    string   `json:"name" yaml:"name"`
	Prompts []string `json:"prompts" yaml:"prompts"`
}

// Registry is an immutable, name-keyed catalogue of policy classes.
type Registry struct {
	classes []PolicyClass
	index   map[string]int
	tags    map[string]string
}

// New builds a Registry from classes and a class-name to tag mapping.
// Duplicate class names are collapsed: the first occurrence wins and keeps its position.
// Classes with an empty name are ignored.
func New(classes []PolicyClass, tags map[string]string) *Registry {
	r := &Registry{
		classes: make([]PolicyClass, 0, len(classes)),
		index:   make(map[string]int, len(classes)),
		tags:    make(map[string]string, len(tags)),
	}

	for _, c := range classes {
		if c.Name == "" {
			continue
		}
		if _, exists := r.index[c.Name]; exists {
			continue
		}
		r.index[c.Name] = len(r.classes)
		r.classes = append(r.classes, PolicyClass{
			Name:    c.Name,
			Prompts: slices.Clone(c.Prompts),
		})
	}

	for name, tag := range tags {
		r.tags[name] = tag
	}

	return r
}

// Classes returns the full catalogue in registration order.
func (r *Registry) Classes() []PolicyClass {
	out := make([]PolicyClass, len(r.classes))
	for i, c := range r.classes {
		out[i] = clone(c)
	}
	return out
}

// Find returns the class registered under name.
func (r *Registry) Find(name string) (PolicyClass, bool) {
	i, ok := r.index[name]
	if !ok {
		return PolicyClass{}, false
	}
	return clone(r.classes[i]), true
}

// Resolve looks up each requested name in submission order. Names absent from the
// catalogue are returned as unresolved rather than treated as errors. Repeated names
// are reported once.
func (r *Registry) Resolve(names []string) ([]PolicyClass, []string) {
	resolved := make([]PolicyClass, 0, len(names))
	var unresolved []string
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if c, ok := r.Find(name); ok {
			resolved = append(resolved, c)
			continue
		}
		unresolved = append(unresolved, name)
	}

	return resolved, unresolved
}

// Tag returns the presentation tag for className, or DefaultTag when none is mapped.
func (r *Registry) Tag(className string) string {
	if tag, ok := r.tags[className]; ok && tag != "" {
		return tag
	}
	return DefaultTag
}

func clone(c PolicyClass) PolicyClass {
	return PolicyClass{
		Name:    c.Name,
		Prompts: slices.Clone(c.Prompts),
	}
}
