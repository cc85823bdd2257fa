package sanitize

import (
	"github.com/abadojack/whatlanggo"
)

// Detector guesses the ISO 639-1 language of a text. ok is false when it has
// no usable guess. Implementations may be nondeterministic.
type Detector interface {
	Detect(text string) (lang string, ok bool)
}

// WhatlangDetector is the default statistical detector.
type WhatlangDetector struct {
	MinConfidence float64
}

func NewWhatlangDetector() *WhatlangDetector {
	return &WhatlangDetector{MinConfidence: 0.5}
}

func (d *WhatlangDetector) Detect(text string) (string, bool) {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" || info.Confidence < d.MinConfidence {
		return "", false
	}
	return code, true
}

// majority runs the detector several times and accepts the most frequent
// answer only when it reaches the quorum.
func majority(d Detector, text string, attempts, quorum int) (string, bool) {
	if d == nil || attempts <= 0 {
		return "", false
	}
	votes := make(map[string]int)
	for i := 0; i < attempts; i++ {
		if lang, ok := d.Detect(text); ok {
			votes[lang]++
		}
	}
	best, n := "", 0
	for lang, c := range votes {
		if c > n || (c == n && lang < best) {
			best, n = lang, c
		}
	}
	if n >= quorum {
		return best, true
	}
	return "", false
}
