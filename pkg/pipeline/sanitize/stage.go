// Package sanitize holds the first pipeline stage: cheap deterministic checks
// on the raw text before anything calls out to a model.
package sanitize

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/wildanku/hala-ai/pkg/pipeline"
)

const (
	StageName  = "sanitization"
	StageOrder = 1
)

var defaultInjectionPatterns = []string{
	`ignore\s+(all\s+)?previous\s+instructions?`,
	`ignore\s+(all\s+)?above\s+instructions?`,
	`disregard\s+(all\s+)?previous`,
	`system\s*(admin|prompt|mode|override)`,
	`you\s+are\s+now\s+(a|an)`,
	`act\s+as\s+(a|an)\s+`,
	`pretend\s+(to\s+be|you\s+are)`,
	`jailbreak`,
	`dan\s*mode`,
	`developer\s*mode`,
	`\[system\]`,
	`\[admin\]`,
	`<\s*script\s*>`,
	`<\s*system\s*>`,
}

var defaultProfanity = []string{
	"fuck", "shit", "bitch", "asshole", "bastard",
	"anjing", "bangsat", "bajingan", "keparat", "kontol", "memek",
}

var (
	tokenPattern      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

type Options struct {
	MinLength          int
	MaxLength          int
	SupportedLanguages []string

	// DetectorAttempts and DetectorQuorum control the statistical fallback:
	// a language is accepted once Quorum of Attempts runs agree.
	DetectorAttempts int
	DetectorQuorum   int

	InjectionPatterns []string
	ProfanityWords    []string
}

func DefaultOptions() Options {
	return Options{
		MinLength:          10,
		MaxLength:          500,
		SupportedLanguages: []string{"id", "en"},
		DetectorAttempts:   5,
		DetectorQuorum:     3,
	}
}

type Stage struct {
	opts      Options
	injection *regexp.Regexp
	profanity map[string]struct{}
	detector  Detector
}

var _ pipeline.Stage = &Stage{}

// NewStage compiles the pattern set. Extra patterns in opts are appended to
// the built-in ones. detector may be nil to rely on the word lists alone.
func NewStage(detector Detector, opts Options) (*Stage, error) {
	def := DefaultOptions()
	if opts.MinLength <= 0 {
		opts.MinLength = def.MinLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = def.MaxLength
	}
	if len(opts.SupportedLanguages) == 0 {
		opts.SupportedLanguages = def.SupportedLanguages
	}
	if opts.DetectorAttempts <= 0 {
		opts.DetectorAttempts = def.DetectorAttempts
	}
	if opts.DetectorQuorum <= 0 {
		opts.DetectorQuorum = def.DetectorQuorum
	}

	patterns := append(slices.Clone(defaultInjectionPatterns), opts.InjectionPatterns...)
	injection, err := regexp.Compile(`(?i)(` + strings.Join(patterns, `)|(`) + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile injection patterns: %w", err)
	}

	profanity := wordSet(defaultProfanity...)
	for _, w := range opts.ProfanityWords {
		profanity[strings.ToLower(w)] = struct{}{}
	}

	return &Stage{
		opts:      opts,
		injection: injection,
		profanity: profanity,
		detector:  detector,
	}, nil
}

func (s *Stage) Name() string { return StageName }
func (s *Stage) Order() int   { return StageOrder }

func (s *Stage) Process(ctx context.Context, ec *pipeline.ExecutionContext) pipeline.Outcome {
	trimmed := strings.TrimSpace(ec.RawInput())
	n := utf8.RuneCountInString(trimmed)

	if n < s.opts.MinLength {
		return pipeline.Reject(StageName, pipeline.CodeValidation, pipeline.Message{
			ID: fmt.Sprintf("Input terlalu pendek. Minimal %d karakter.", s.opts.MinLength),
			EN: fmt.Sprintf("Input too short. Minimum %d characters required.", s.opts.MinLength),
		}, "Please provide more details about your question.")
	}
	if n > s.opts.MaxLength {
		return pipeline.Reject(StageName, pipeline.CodeValidation, pipeline.Message{
			ID: fmt.Sprintf("Input terlalu panjang. Maksimal %d karakter.", s.opts.MaxLength),
			EN: fmt.Sprintf("Input too long. Maximum %d characters allowed.", s.opts.MaxLength),
		}, "Please shorten your question.")
	}

	if s.injection.MatchString(trimmed) {
		return pipeline.Reject(StageName, pipeline.CodeInjection, pipeline.Message{
			ID: "Terdeteksi pola input yang tidak diizinkan.",
			EN: "Disallowed input pattern detected.",
		}, "Please provide a genuine question without special instructions.")
	}

	cleaned := Clean(trimmed)
	tokens := Tokens(cleaned)

	if s.containsProfanity(tokens) {
		return pipeline.Reject(StageName, pipeline.CodeValidation, pipeline.Message{
			ID: "Mohon gunakan bahasa yang sopan.",
			EN: "Please use respectful language.",
		}, "Please rephrase your question without offensive words.")
	}

	lang, ok := lexicalVote(tokens)
	if !ok {
		lang, ok = majority(s.detector, cleaned, s.opts.DetectorAttempts, s.opts.DetectorQuorum)
	}

	switch {
	case ok && !slices.Contains(s.opts.SupportedLanguages, lang):
		return pipeline.Reject(StageName, pipeline.CodeLanguageUnsupported, pipeline.Message{
			ID: "Bahasa tidak didukung. Gunakan Bahasa Indonesia atau English.",
			EN: "Language not supported. Please use Indonesian or English.",
		}, "Please write your question in Indonesian or English.")
	case !ok && IsGibberish(tokens):
		return pipeline.Reject(StageName, pipeline.CodeValidation, pipeline.Message{
			ID: "Input tidak dapat dipahami.",
			EN: "Input could not be understood.",
		}, "Please write a clear question in Indonesian or English.")
	case ok:
		ec.DetectedLanguage = lang
	}

	ec.ProcessedInput = cleaned
	return pipeline.Pass(StageName)
}

func (s *Stage) containsProfanity(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := s.profanity[t]; ok {
			return true
		}
	}
	return false
}

// Clean collapses whitespace runs to a single space and trims the ends.
// Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Tokens lower-cases the text and splits it into word tokens.
func Tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// IsGibberish is the fallback used when no language could be determined.
func IsGibberish(tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}

	var known, short, shortKnown int
	for _, t := range tokens {
		r := recognized(t)
		if r {
			known++
		}
		if utf8.RuneCountInString(t) <= 2 {
			short++
			if r {
				shortKnown++
			}
		}
	}

	if len(tokens) >= 2 && known == 0 {
		return true
	}
	if shortKnown == 0 && float64(short)/float64(len(tokens)) > 0.5 {
		return true
	}
	return repeatedBigramDensity(tokens) >= 0.5
}

// repeatedBigramDensity is the share of character bigrams that repeat an
// earlier one. Keyboard mashing like "asdasdasd" scores high.
func repeatedBigramDensity(tokens []string) float64 {
	seen := make(map[string]struct{})
	total, repeated := 0, 0
	for _, t := range tokens {
		runes := []rune(t)
		for i := 0; i+1 < len(runes); i++ {
			bg := string(runes[i : i+2])
			total++
			if _, ok := seen[bg]; ok {
				repeated++
				continue
			}
			seen[bg] = struct{}{}
		}
	}
	if total < 8 {
		return 0
	}
	return float64(repeated) / float64(total)
}
