// Package safety screens requests for crisis signals, violent intent and
// topics that conflict with the platform's values.
package safety

import (
	"context"
	"fmt"

	"github.com/wildanku/hala-ai/pkg/pipeline"
)

const (
	StageName  = "safety_guardrails"
	StageOrder = 3
)

type Options struct {
	Crisis   bool
	Violence bool
	Values   bool
}

func DefaultOptions() Options {
	return Options{Crisis: true, Violence: true, Values: true}
}

type Stage struct {
	rules   *Ruleset
	enabled map[string]bool
}

var _ pipeline.Stage = &Stage{}

func NewStage(rules *Ruleset, opts Options) *Stage {
	return &Stage{
		rules: rules,
		enabled: map[string]bool{
			FamilyCrisis:   opts.Crisis,
			FamilyViolence: opts.Violence,
			FamilyValues:   opts.Values,
		},
	}
}

func (s *Stage) Name() string { return StageName }
func (s *Stage) Order() int   { return StageOrder }

func (s *Stage) Process(ctx context.Context, ec *pipeline.ExecutionContext) pipeline.Outcome {
	text := ec.ProcessedInput

	for _, f := range s.rules.Families {
		if on, known := s.enabled[f.Name]; known && !on {
			continue
		}
		if !f.Match(text) {
			continue
		}

		ec.AddFlag(f.Flag)
		if f.Name == FamilyCrisis {
			return s.crisisOutcome(ec.Language())
		}
		return pipeline.Reject(StageName, pipeline.CodeSafetyViolation, f.Message, f.Action)
	}

	return pipeline.Pass(StageName)
}

func (s *Stage) crisisOutcome(lang string) pipeline.Outcome {
	id := s.rules.Resource("id")
	en := s.rules.Resource("en")
	local := s.rules.Resource(lang)

	return pipeline.Reject(StageName, pipeline.CodeSafetyViolation, pipeline.Message{
		ID: fmt.Sprintf("%s Hotline: %s", id.Message, local.Hotline),
		EN: fmt.Sprintf("%s Hotline: %s", en.Message, local.Hotline),
	}, fmt.Sprintf("Please contact: %s or visit %s", local.Hotline, local.Website))
}
