package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/wildanku/hala-ai/pkg/vectorstore"
)

// Knowledge reference categories as stored by the sync job.
const (
	CategoryVerse    = "VERSE"
	CategoryHadith   = "HADITH"
	CategoryDoa      = "DOA"
	CategoryStrategy = "STRATEGY"
	CategoryStory    = "STORY"
)

// Metadata keys written by the sync job.
const (
	MetaArabic   = "arabic"
	MetaPayload  = "payload"
	MetaIsActive = "is_active"
)

const noReferences = "(No specific references found - use your knowledge as an Islamic life coach)"

type RouterOptions struct {
	TemplateLimit     int
	ReferenceLimit    int
	StoryLimit        int
	RelevanceDistance float64
	ReuseThreshold    float64
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		TemplateLimit:     3,
		ReferenceLimit:    10,
		StoryLimit:        3,
		RelevanceDistance: 0.7,
		ReuseThreshold:    0.85,
	}
}

// Decision is the outcome of routing one request.
type Decision struct {
	// Template is the closest active template, nil when the catalog is empty.
	Template           *vectorstore.Document
	TemplateSimilarity float64
	Reuse              bool

	References []vectorstore.Document
	Grounding  string
}

// Router decides between template reuse and fresh generation, and assembles
// the grounding text for the latter.
type Router struct {
	store vectorstore.Store
	opts  RouterOptions
}

func NewRouter(store vectorstore.Store, opts RouterOptions) *Router {
	def := DefaultRouterOptions()
	if opts.TemplateLimit <= 0 {
		opts.TemplateLimit = def.TemplateLimit
	}
	if opts.ReferenceLimit <= 0 {
		opts.ReferenceLimit = def.ReferenceLimit
	}
	if opts.StoryLimit <= 0 {
		opts.StoryLimit = def.StoryLimit
	}
	if opts.RelevanceDistance <= 0 {
		opts.RelevanceDistance = def.RelevanceDistance
	}
	if opts.ReuseThreshold <= 0 {
		opts.ReuseThreshold = def.ReuseThreshold
	}
	return &Router{store: store, opts: opts}
}

// ShouldReuseTemplate gates template reuse on similarity and language.
func ShouldReuseTemplate(similarity float64, templateLang, detectedLang string) bool {
	return shouldReuse(similarity, DefaultRouterOptions().ReuseThreshold, templateLang, detectedLang)
}

func shouldReuse(similarity, threshold float64, templateLang, detectedLang string) bool {
	return similarity >= threshold && templateLang == detectedLang
}

func (r *Router) Route(ctx context.Context, vector []float32, lang string) (*Decision, error) {
	templates, err := r.store.Search(ctx, vectorstore.CollectionTemplates, vector, r.opts.TemplateLimit,
		vectorstore.Filter{MetaIsActive: "true"})
	if err != nil {
		return nil, fmt.Errorf("search templates: %w", err)
	}

	d := &Decision{}
	if len(templates) > 0 {
		best := templates[0]
		d.Template = &best
		d.TemplateSimilarity = 1 - best.Distance
		d.Reuse = shouldReuse(d.TemplateSimilarity, r.opts.ReuseThreshold, best.Language, lang)
	}
	if d.Reuse {
		return d, nil
	}
	return r.routeFresh(ctx, vector, d)
}

// routeFresh fills in the grounding text for a fresh generation.
func (r *Router) routeFresh(ctx context.Context, vector []float32, d *Decision) (*Decision, error) {
	d.Reuse = false
	refs, err := r.store.Search(ctx, vectorstore.CollectionKnowledge, vector, r.opts.ReferenceLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("search knowledge references: %w", err)
	}
	d.References = refs

	lines, hasStory := r.formatReferences(refs)
	if !hasStory {
		stories, err := r.store.Search(ctx, vectorstore.CollectionKnowledge, vector, r.opts.StoryLimit,
			vectorstore.Filter{"category": CategoryStory})
		if err != nil {
			return nil, fmt.Errorf("search stories: %w", err)
		}
		for _, s := range stories {
			if strings.TrimSpace(s.Content) != "" {
				lines = append(lines, formatReference(s))
				break
			}
		}
	}

	if len(lines) == 0 {
		d.Grounding = noReferences
	} else {
		d.Grounding = strings.Join(lines, "\n")
	}
	return d, nil
}

// formatReferences keeps references within the relevance distance.
func (r *Router) formatReferences(refs []vectorstore.Document) ([]string, bool) {
	var lines []string
	hasStory := false
	for _, ref := range refs {
		if ref.Distance > r.opts.RelevanceDistance {
			continue
		}
		line := formatReference(ref)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if ref.Category == CategoryStory {
			hasStory = true
		}
	}
	return lines, hasStory
}

func formatReference(ref vectorstore.Document) string {
	switch ref.Category {
	case CategoryVerse, CategoryHadith:
		label := "Verse"
		if ref.Category == CategoryHadith {
			label = "Hadith"
		}
		line := fmt.Sprintf("- %s (%s): %s", label, ref.Source, ref.Content)
		if ar := ref.Meta(MetaArabic); ar != "" {
			line += "\n  Arabic: " + ar
		}
		return line
	case CategoryDoa:
		return "- Doa: " + ref.Content
	case CategoryStrategy:
		return "- Strategy: " + ref.Content
	case CategoryStory:
		return "- Story/Wisdom: " + ref.Content
	}
	return ""
}
