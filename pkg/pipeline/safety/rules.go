package safety

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wildanku/hala-ai/pkg/pipeline"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatternsYAML []byte

const (
	FamilyCrisis   = "crisis"
	FamilyViolence = "violence"
	FamilyValues   = "values"
)

type Family struct {
	Name     string           `yaml:"name"`
	Priority int              `yaml:"priority"`
	Flag     string           `yaml:"flag"`
	Message  pipeline.Message `yaml:"message"`
	Action   string           `yaml:"action"`
	Patterns []string         `yaml:"patterns"`

	re *regexp.Regexp
}

func (f *Family) compile() error {
	if len(f.Patterns) == 0 {
		f.re = nil
		return nil
	}
	re, err := regexp.Compile(`(?i)(` + strings.Join(f.Patterns, `)|(`) + `)`)
	if err != nil {
		return fmt.Errorf("safety family %q: %w", f.Name, err)
	}
	f.re = re
	return nil
}

func (f *Family) Match(text string) bool {
	return f.re != nil && f.re.MatchString(text)
}

type Resource struct {
	Hotline string `yaml:"hotline"`
	Website string `yaml:"website"`
	Message string `yaml:"message"`
}

// Ruleset is the pattern data behind the safety stage.
type Ruleset struct {
	Families        []*Family           `yaml:"families"`
	CrisisResources map[string]Resource `yaml:"crisis_resources"`
}

func LoadRuleset(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse safety patterns: %w", err)
	}
	if _, ok := rs.CrisisResources["en"]; !ok {
		return nil, fmt.Errorf("safety patterns: crisis_resources needs an \"en\" entry")
	}
	sort.SliceStable(rs.Families, func(i, j int) bool { return rs.Families[i].Priority < rs.Families[j].Priority })
	for _, f := range rs.Families {
		if err := f.compile(); err != nil {
			return nil, err
		}
	}
	return &rs, nil
}

func DefaultRuleset() *Ruleset {
	rs, err := LoadRuleset(defaultPatternsYAML)
	if err != nil {
		panic(err)
	}
	return rs
}

func (rs *Ruleset) Family(name string) (*Family, bool) {
	for _, f := range rs.Families {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Extend appends patterns to a family.
func (rs *Ruleset) Extend(family string, patterns ...string) error {
	f, ok := rs.Family(family)
	if !ok {
		return fmt.Errorf("unknown safety family %q", family)
	}
	prev := f.Patterns
	f.Patterns = append(append([]string{}, prev...), patterns...)
	if err := f.compile(); err != nil {
		f.Patterns = prev
		_ = f.compile()
		return err
	}
	return nil
}

// Resource picks the crisis contact for a language, falling back to English.
func (rs *Ruleset) Resource(lang string) Resource {
	if r, ok := rs.CrisisResources[lang]; ok {
		return r
	}
	return rs.CrisisResources["en"]
}
