package safety

import (
	"context"
	"testing"

	"github.com/wildanku/hala-ai/pkg/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func process(s *Stage, text, lang string) (pipeline.Outcome, *pipeline.ExecutionContext) {
	ec := pipeline.NewExecutionContext(pipeline.Request{Text: text, Language: lang})
	return s.Process(context.Background(), ec), ec
}

func TestSafetyStage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantFlag string
	}{
		{"crisis indonesian", "saya merasa ingin bunuh diri saja", "CRISIS_DETECTED"},
		{"crisis english", "I feel hopeless and want to die", "CRISIS_DETECTED"},
		{"self harm with hyphen", "how do I stop self-harm urges", "CRISIS_DETECTED"},
		{"violence", "how can I hurt others who wronged me", "VIOLENCE_DETECTED"},
		{"weapons", "where to buy senjata api", "VIOLENCE_DETECTED"},
		{"gambling", "is online casino ok if I win", "HARAM_TOPIC_DETECTED"},
		{"alcohol", "boleh minum alkohol sedikit?", "HARAM_TOPIC_DETECTED"},
		{"magic", "cari dukun untuk pelet", "HARAM_TOPIC_DETECTED"},
		{"clean", "saya ingin rajin sholat tahajud", ""},
		{"word boundary", "I bought a better alphabet book", ""},
	}

	s := NewStage(DefaultRuleset(), DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ec := process(s, tt.input, "id")
			if tt.wantFlag == "" {
				assert.True(t, out.Ok())
				assert.Empty(t, ec.SafetyFlags)
				return
			}
			assert.Equal(t, pipeline.Rejected, out.Kind)
			assert.Equal(t, pipeline.CodeSafetyViolation, out.Code)
			assert.Equal(t, []string{tt.wantFlag}, ec.SafetyFlags)
			assert.NotEmpty(t, out.Message.ID)
			assert.NotEmpty(t, out.Message.EN)
		})
	}
}

func TestCrisisTakesPriority(t *testing.T) {
	s := NewStage(DefaultRuleset(), DefaultOptions())
	out, ec := process(s, "I want to die, maybe with alcohol and a bomb", "en")

	assert.Equal(t, []string{"CRISIS_DETECTED"}, ec.SafetyFlags)
	assert.Contains(t, out.Message.EN, "119 ext 8")
	assert.Contains(t, out.SuggestedAction, "intothelightid.org")
}

func TestCrisisResourcesAreLocalized(t *testing.T) {
	s := NewStage(DefaultRuleset(), DefaultOptions())

	out, _ := process(s, "saya mau mati rasanya", "id")
	assert.Contains(t, out.Message.ID, "Jika kamu sedang dalam kesulitan")
	assert.Contains(t, out.Message.EN, "If you're struggling")

	// unknown language falls back to the English contact
	out, _ = process(s, "I want to end my life", "fr")
	assert.Contains(t, out.SuggestedAction, "119 ext 8")
}

func TestCrisisHotlineFollowsRequestRegion(t *testing.T) {
	rs := DefaultRuleset()
	rs.CrisisResources["ms"] = Resource{
		Hotline: "15999 (Talian Kasih)",
		Website: "https://www.kpwkm.gov.my",
		Message: "Jika anda sedang bergelut, sila hubungi seseorang.",
	}

	out, _ := process(NewStage(rs, DefaultOptions()), "I want to end my life", "ms")
	assert.Contains(t, out.Message.ID, "Hotline: 15999 (Talian Kasih)")
	assert.Contains(t, out.Message.EN, "Hotline: 15999 (Talian Kasih)")
	assert.Contains(t, out.Message.EN, "If you're struggling")
	assert.NotContains(t, out.Message.EN, "119 ext 8")
	assert.Contains(t, out.SuggestedAction, "kpwkm.gov.my")
}

func TestFamiliesCanBeDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Values = false
	s := NewStage(DefaultRuleset(), opts)

	out, ec := process(s, "is online casino ok if I win", "en")
	assert.True(t, out.Ok())
	assert.Empty(t, ec.SafetyFlags)
}

func TestRulesetExtend(t *testing.T) {
	rs := DefaultRuleset()
	require.NoError(t, rs.Extend(FamilyValues, `\bpinjol\b`))

	out, ec := process(NewStage(rs, DefaultOptions()), "cara cepat dapat pinjol", "id")
	assert.Equal(t, pipeline.CodeSafetyViolation, out.Code)
	assert.Equal(t, []string{"HARAM_TOPIC_DETECTED"}, ec.SafetyFlags)

	assert.Error(t, rs.Extend("unknown", `x`))
	assert.Error(t, rs.Extend(FamilyValues, `(broken`))

	// a failed extend leaves the family usable
	out, _ = process(NewStage(rs, DefaultOptions()), "cara cepat dapat pinjol", "id")
	assert.Equal(t, pipeline.CodeSafetyViolation, out.Code)
}

func TestDefaultRulesetOrder(t *testing.T) {
	rs := DefaultRuleset()
	require.Len(t, rs.Families, 3)
	assert.Equal(t, FamilyCrisis, rs.Families[0].Name)
	assert.Equal(t, FamilyViolence, rs.Families[1].Name)
	assert.Equal(t, FamilyValues, rs.Families[2].Name)
}
