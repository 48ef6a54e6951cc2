package taxonomy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrEmptyCatalogue indicates a catalogue file declared no usable classes.
var ErrEmptyCatalogue = errors.New("taxonomy catalogue contains no classes")

var builtinClasses = []PolicyClass{
	{
		Name:    "Violence",
		Prompts: []string{"physical altercation", "weapon usage", "graphic injury", "cruel acts"},
	},
	{
		Name:    "HateSpeech",
		Prompts: []string{"racial slurs", "discriminatory language", "extremist ideologies"},
	},
	{
		Name:    "GraphicContent",
		Prompts: []string{"excessive gore", "graphic content", "disturbing footage"},
	},
	{
		Name:    "Harassment",
		Prompts: []string{"cyberbullying", "threats", "stalking behavior"},
	},
	{
		Name:    "PrivacyViolation",
		Prompts: []string{"personal information", "unauthorized data", "private content"},
	},
}

var builtinTags = map[string]string{
	"Violence":         "⚔️",
	"HateSpeech":       "🚫",
	"GraphicContent":   "⚠️",
	"Harassment":       "🚷",
	"PrivacyViolation": "🔒",
	"SexualContent":    "🔞",
	"Misinformation":   "❌",
	"SelfHarm":         "⛔",
}

// Default returns a Registry holding the built-in catalogue.
func Default() *Registry {
	return New(builtinClasses, builtinTags)
}

type catalogueFile struct {
	Classes []catalogueEntry `yaml:"classes"`
}

type catalogueEntry struct {
	Name    string   `yaml:"name"`
	Prompts []string `yaml:"prompts"`
	Tag     string   `yaml:"tag"`
}

// Load reads a YAML catalogue file. Entries without a tag fall back to the
// built-in tag for the same class name, if any.
//
//	classes:
//	  - name: Violence
//	    tag: "⚔️"
//	    prompts: ["physical altercation", "weapon usage"]
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}

	classes := make([]PolicyClass, 0, len(file.Classes))
	tags := make(map[string]string, len(builtinTags))
	for name, tag := range builtinTags {
		tags[name] = tag
	}

	tagged := make(map[string]bool, len(file.Classes))
	for _, e := range file.Classes {
		if e.Name == "" || len(e.Prompts) == 0 {
			continue
		}
		classes = append(classes, PolicyClass{Name: e.Name, Prompts: e.Prompts})

		// first declaration of a name owns its tag, matching class dedup in New
		if e.Tag != "" && !tagged[e.Name] {
			tags[e.Name] = e.Tag
		}
		tagged[e.Name] = true
	}

	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCatalogue, path)
	}

	return New(classes, tags), nil
}

// FromPath returns the catalogue at path, or the built-in catalogue when path is empty.
func FromPath(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
