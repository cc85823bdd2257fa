package scope

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed scopes.yaml
var defaultScopesYAML []byte

// Descriptor is one named scope and the exemplar text that represents it.
type Descriptor struct {
	Name     string `yaml:"name"`
	Exemplar string `yaml:"exemplar"`
}

// DescriptorSet is the versioned, ordered list of scopes plus the keyword
// table used for borderline scores. Order matters: ties go to the earlier scope.
type DescriptorSet struct {
	Version  string              `yaml:"version"`
	Scopes   []Descriptor        `yaml:"scopes"`
	Keywords map[string][]string `yaml:"keywords"`
}

func LoadDescriptorSet(data []byte) (*DescriptorSet, error) {
	var set DescriptorSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse scope descriptors: %w", err)
	}
	if len(set.Scopes) == 0 {
		return nil, fmt.Errorf("scope descriptors: no scopes defined")
	}
	seen := make(map[string]bool, len(set.Scopes))
	for i, s := range set.Scopes {
		if s.Name == "" || strings.TrimSpace(s.Exemplar) == "" {
			return nil, fmt.Errorf("scope descriptors: entry %d needs a name and an exemplar", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("scope descriptors: duplicate scope %q", s.Name)
		}
		seen[s.Name] = true
	}
	for cat, words := range set.Keywords {
		for i, w := range words {
			set.Keywords[cat][i] = strings.ToLower(w)
		}
	}
	return &set, nil
}

// DefaultDescriptorSet is the set compiled into the binary.
func DefaultDescriptorSet() *DescriptorSet {
	set, err := LoadDescriptorSet(defaultScopesYAML)
	if err != nil {
		panic(err)
	}
	return set
}

func (d *DescriptorSet) Names() []string {
	names := make([]string, len(d.Scopes))
	for i, s := range d.Scopes {
		names[i] = s.Name
	}
	return names
}

func (d *DescriptorSet) Exemplars() []string {
	texts := make([]string, len(d.Scopes))
	for i, s := range d.Scopes {
		texts[i] = s.Exemplar
	}
	return texts
}

// MatchKeyword returns the first category (alphabetically) with a keyword
// contained in the lower-cased text.
func (d *DescriptorSet) MatchKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)
	cats := make([]string, 0, len(d.Keywords))
	for cat := range d.Keywords {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		for _, w := range d.Keywords[cat] {
			if w != "" && strings.Contains(lower, w) {
				return cat, true
			}
		}
	}
	return "", false
}
