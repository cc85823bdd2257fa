package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wildanku/hala-ai/internal/entity"
	"github.com/wildanku/hala-ai/internal/repository/contract"
	"github.com/wildanku/hala-ai/internal/repository/specification"
	"github.com/wildanku/hala-ai/internal/repository/unitofwork"
	"github.com/wildanku/hala-ai/pkg/events"
	"github.com/wildanku/hala-ai/pkg/llm"
	"github.com/wildanku/hala-ai/pkg/vectorstore"
	"github.com/wildanku/hala-ai/pkg/vectorstore/memory"

	"github.com/google/uuid"
)

// fakeCatalog is an in-memory stand-in for the catalog database. Specifications
// are interpreted by type instead of being turned into SQL.
type fakeCatalog struct {
	mu        sync.Mutex
	refs      []*entity.KnowledgeReference
	templates []*entity.JourneyTemplate
	matches   map[uuid.UUID]int
	store     *memory.Store

	findErr   error
	begins    int
	commits   int
	rollbacks int
}

var _ unitofwork.RepositoryFactory = &fakeCatalog{}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{matches: make(map[uuid.UUID]int), store: memory.NewStore()}
}

func (c *fakeCatalog) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{catalog: c}
}

func (c *fakeCatalog) matchCount(id uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matches[id]
}

// fakeUnitOfWork snapshots the semantic store on Begin and restores it on
// Rollback, the way the pgvector tables behave inside a transaction.
type fakeUnitOfWork struct {
	catalog  *fakeCatalog
	inTx     bool
	snapshot *memory.Store
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return errors.New("transaction already started")
	}
	u.inTx = true
	u.catalog.mu.Lock()
	u.catalog.begins++
	u.snapshot = u.catalog.store.Clone()
	u.catalog.mu.Unlock()
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	if !u.inTx {
		return errors.New("no transaction to commit")
	}
	u.inTx = false
	u.catalog.mu.Lock()
	u.catalog.commits++
	u.snapshot = nil
	u.catalog.mu.Unlock()
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	if !u.inTx {
		return errors.New("no transaction to rollback")
	}
	u.inTx = false
	u.catalog.mu.Lock()
	u.catalog.rollbacks++
	u.catalog.store = u.snapshot
	u.snapshot = nil
	u.catalog.mu.Unlock()
	return nil
}

func (u *fakeUnitOfWork) KnowledgeReferenceRepository() contract.KnowledgeReferenceRepository {
	return &fakeReferenceRepository{catalog: u.catalog}
}

func (u *fakeUnitOfWork) JourneyTemplateRepository() contract.JourneyTemplateRepository {
	return &fakeTemplateRepository{catalog: u.catalog}
}

func (u *fakeUnitOfWork) SemanticStore() vectorstore.Store {
	u.catalog.mu.Lock()
	defer u.catalog.mu.Unlock()
	return u.catalog.store
}

func matchesSpecs(specs []specification.Specification, id uuid.UUID, status string, updatedAt *time.Time) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if sp.ID != id {
				return false
			}
		case specification.NotRejected:
			if status == entity.StatusRejected {
				return false
			}
		case specification.UpdatedSince:
			if !sp.Time.IsZero() && (updatedAt == nil || !updatedAt.After(sp.Time)) {
				return false
			}
		}
	}
	return true
}

func paginate[T any](items []T, specs []specification.Specification) []T {
	for _, s := range specs {
		p, ok := s.(specification.Pagination)
		if !ok {
			continue
		}
		if p.Offset >= len(items) {
			return nil
		}
		end := p.Offset + p.Limit
		if p.Limit <= 0 || end > len(items) {
			end = len(items)
		}
		return items[p.Offset:end]
	}
	return items
}

type fakeReferenceRepository struct {
	catalog *fakeCatalog
}

func (r *fakeReferenceRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeReference, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeReferenceRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeReference, error) {
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()
	if r.catalog.findErr != nil {
		return nil, r.catalog.findErr
	}
	var out []*entity.KnowledgeReference
	for _, ref := range r.catalog.refs {
		if matchesSpecs(specs, ref.Id, ref.Status, ref.UpdatedAt) {
			cp := *ref
			out = append(out, &cp)
		}
	}
	return paginate(out, specs), nil
}

func (r *fakeReferenceRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type fakeTemplateRepository struct {
	catalog *fakeCatalog
}

func (r *fakeTemplateRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.JourneyTemplate, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeTemplateRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.JourneyTemplate, error) {
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()
	if r.catalog.findErr != nil {
		return nil, r.catalog.findErr
	}
	var out []*entity.JourneyTemplate
	for _, tpl := range r.catalog.templates {
		if matchesSpecs(specs, tpl.Id, tpl.Status, tpl.UpdatedAt) {
			cp := *tpl
			out = append(out, &cp)
		}
	}
	return paginate(out, specs), nil
}

func (r *fakeTemplateRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func (r *fakeTemplateRepository) IncrementMatchCount(ctx context.Context, specs ...specification.Specification) error {
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()
	for _, tpl := range r.catalog.templates {
		if matchesSpecs(specs, tpl.Id, tpl.Status, tpl.UpdatedAt) {
			r.catalog.matches[tpl.Id]++
		}
	}
	return nil
}

// recordingPublisher captures bus events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fakeLLM struct {
	name    string
	content string
	err     error
	healthy bool
	calls   int
}

func (p *fakeLLM) Name() string  { return p.name }
func (p *fakeLLM) Model() string { return p.name + "-model" }
func (p *fakeLLM) HealthCheck(ctx context.Context) bool {
	return p.healthy
}

func (p *fakeLLM) Generate(ctx context.Context, instructions, prompt string, opts ...llm.Option) (*llm.Response, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.content, Provider: p.name}, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
