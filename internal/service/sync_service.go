package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wildanku/hala-ai/internal/dto"
	"github.com/wildanku/hala-ai/internal/entity"
	"github.com/wildanku/hala-ai/internal/pkg/logger"
	"github.com/wildanku/hala-ai/internal/repository/specification"
	"github.com/wildanku/hala-ai/internal/repository/unitofwork"
	"github.com/wildanku/hala-ai/pkg/embedding"
	"github.com/wildanku/hala-ai/pkg/events"
	"github.com/wildanku/hala-ai/pkg/pipeline/generation"
	"github.com/wildanku/hala-ai/pkg/vectorstore"

	"github.com/google/uuid"
)

const (
	SyncKindAll                = "all"
	SyncKindKnowledgeReference = "knowledge_reference"
	SyncKindJourneyTemplate    = "journey_template"
)

var (
	ErrSyncInProgress  = errors.New("sync already running")
	ErrCatalogNotFound = errors.New("catalog item not found")
	ErrSyncQueueOff    = errors.New("sync queue not configured")
)

// retrievalCollections maps knowledge categories onto the collections the
// retrieval stage searches. Other categories live in knowledge_references only.
var retrievalCollections = map[string]string{
	generation.CategoryVerse:    vectorstore.CollectionVerses,
	generation.CategoryHadith:   vectorstore.CollectionHadith,
	generation.CategoryStrategy: vectorstore.CollectionStrategies,
}

var referenceCollections = []string{
	vectorstore.CollectionKnowledge,
	vectorstore.CollectionVerses,
	vectorstore.CollectionHadith,
	vectorstore.CollectionStrategies,
}

// SyncedCollections is every collection the sync job owns.
var SyncedCollections = append(append([]string{}, referenceCollections...), vectorstore.CollectionTemplates)

type ISyncService interface {
	RunAll(ctx context.Context, fullSync bool) (*dto.SyncStats, error)
	SyncKnowledgeReference(ctx context.Context, id uuid.UUID) error
	SyncJourneyTemplate(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*dto.SyncStats, error)
	Enqueue(ctx context.Context, msg dto.SyncMessage) error
}

type syncService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.Provider
	checkpoint SyncCheckpoint
	publisher  IPublisherService
	events     EventPublisher
	logger     logger.ILogger
	batchSize  int

	running sync.Mutex
	mu      sync.RWMutex
	last    *dto.SyncStats
}

// NewSyncService copies the relational catalog into the semantic store.
// publisher and eventPublisher may be nil.
func NewSyncService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.Provider,
	checkpoint SyncCheckpoint,
	publisher IPublisherService,
	eventPublisher EventPublisher,
	log logger.ILogger,
) ISyncService {
	if checkpoint == nil {
		checkpoint = NewMemoryCheckpoint()
	}
	return &syncService{
		uowFactory: uowFactory,
		embedder:   embedder,
		checkpoint: checkpoint,
		publisher:  publisher,
		events:     eventPublisher,
		logger:     log,
		batchSize:  100,
	}
}

type indexResult struct {
	Synced    int
	Retrieval int
	Failed    int
	EmbedErr  error
}

// RunAll syncs the whole catalog. A full sync clears the collections first and
// skips rejected rows; an incremental sync only reads rows updated since the
// last clean run and removes rows that were rejected in the meantime. Both run
// inside one transaction so searches never see a half-cleared store. A full
// sync that fails to embed a batch is rolled back and returns the error. An
// incremental sync commits the batches that did embed and leaves the
// checkpoint alone so the failed rows are retried.
func (s *syncService) RunAll(ctx context.Context, fullSync bool) (*dto.SyncStats, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	stats := &dto.SyncStats{FullSync: fullSync, StartTime: time.Now().UTC()}
	s.logger.Info("SyncService", "Starting data synchronization", map[string]interface{}{
		"full_sync": fullSync,
	})

	var since time.Time
	if !fullSync {
		t, err := s.checkpoint.Load(ctx)
		if err != nil {
			s.logger.Warn("SyncService", "Failed to load sync checkpoint, syncing everything", map[string]interface{}{
				"error": err.Error(),
			})
		}
		since = t
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("begin sync transaction: %w", err)
	}
	defer uow.Rollback()

	store := uow.SemanticStore()
	if fullSync {
		s.logger.Info("SyncService", "Clearing collections for full sync", nil)
		for _, c := range SyncedCollections {
			if err := store.Reset(ctx, c); err != nil {
				return nil, fmt.Errorf("reset %s: %w", c, err)
			}
		}
	}

	base := []specification.Specification{specification.UpdatedSince{Time: since}}
	if fullSync {
		base = append(base, specification.NotRejected{})
	}

	for offset := 0; ; offset += s.batchSize {
		specs := append(base[:len(base):len(base)],
			specification.OrderBy{Field: "created_at"},
			specification.Pagination{Limit: s.batchSize, Offset: offset})
		refs, err := uow.KnowledgeReferenceRepository().FindAll(ctx, specs...)
		if err != nil {
			return nil, fmt.Errorf("load knowledge references: %w", err)
		}
		res, err := s.indexReferences(ctx, store, refs)
		if err != nil {
			return nil, err
		}
		if fullSync && res.EmbedErr != nil {
			return nil, fmt.Errorf("full sync aborted, embed knowledge references: %w", res.EmbedErr)
		}
		stats.KnowledgeReferencesSynced += res.Synced
		stats.RetrievalDocumentsSynced += res.Retrieval
		stats.Errors += res.Failed
		if len(refs) < s.batchSize {
			break
		}
	}

	for offset := 0; ; offset += s.batchSize {
		specs := append(base[:len(base):len(base)],
			specification.OrderBy{Field: "created_at"},
			specification.Pagination{Limit: s.batchSize, Offset: offset})
		templates, err := uow.JourneyTemplateRepository().FindAll(ctx, specs...)
		if err != nil {
			return nil, fmt.Errorf("load journey templates: %w", err)
		}
		res, err := s.indexTemplates(ctx, store, templates)
		if err != nil {
			return nil, err
		}
		if fullSync && res.EmbedErr != nil {
			return nil, fmt.Errorf("full sync aborted, embed journey templates: %w", res.EmbedErr)
		}
		stats.JourneyTemplatesSynced += res.Synced
		stats.Errors += res.Failed
		if len(templates) < s.batchSize {
			break
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit sync transaction: %w", err)
	}

	stats.EndTime = time.Now().UTC()
	stats.DurationSeconds = stats.EndTime.Sub(stats.StartTime).Seconds()
	stats.CollectionCounts = s.collectionCounts(ctx)

	// rows that failed to embed must be picked up again by the next run
	if stats.Errors == 0 {
		if err := s.checkpoint.Save(ctx, stats.StartTime); err != nil {
			s.logger.Warn("SyncService", "Failed to save sync checkpoint", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.mu.Lock()
	s.last = stats
	s.mu.Unlock()

	s.logger.Info("SyncService", "Synchronization completed", map[string]interface{}{
		"knowledge_references": stats.KnowledgeReferencesSynced,
		"journey_templates":    stats.JourneyTemplatesSynced,
		"retrieval_documents":  stats.RetrievalDocumentsSynced,
		"errors":               stats.Errors,
		"duration_seconds":     stats.DurationSeconds,
	})
	s.publishCompleted(ctx, stats)

	copied := *stats
	return &copied, nil
}

func (s *syncService) SyncKnowledgeReference(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ref, err := uow.KnowledgeReferenceRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return fmt.Errorf("load knowledge reference %s: %w", id, err)
	}
	if ref == nil {
		s.logger.Warn("SyncService", "Knowledge reference not found", map[string]interface{}{"id": id.String()})
		return ErrCatalogNotFound
	}

	res, err := s.indexReferences(ctx, uow.SemanticStore(), []*entity.KnowledgeReference{ref})
	if err != nil {
		return err
	}
	if res.EmbedErr != nil {
		return fmt.Errorf("embed knowledge reference %s: %w", id, res.EmbedErr)
	}

	s.logger.Info("SyncService", "Synced knowledge reference", map[string]interface{}{
		"id":       id.String(),
		"category": ref.Category,
		"status":   ref.Status,
	})
	return nil
}

func (s *syncService) SyncJourneyTemplate(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tpl, err := uow.JourneyTemplateRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return fmt.Errorf("load journey template %s: %w", id, err)
	}
	if tpl == nil {
		s.logger.Warn("SyncService", "Journey template not found", map[string]interface{}{"id": id.String()})
		return ErrCatalogNotFound
	}

	res, err := s.indexTemplates(ctx, uow.SemanticStore(), []*entity.JourneyTemplate{tpl})
	if err != nil {
		return err
	}
	if res.EmbedErr != nil {
		return fmt.Errorf("embed journey template %s: %w", id, res.EmbedErr)
	}

	s.logger.Info("SyncService", "Synced journey template", map[string]interface{}{
		"id":     id.String(),
		"status": tpl.Status,
	})
	return nil
}

// Stats returns the last completed run together with the current collection sizes.
func (s *syncService) Stats(ctx context.Context) (*dto.SyncStats, error) {
	s.mu.RLock()
	stats := dto.SyncStats{}
	if s.last != nil {
		stats = *s.last
	}
	s.mu.RUnlock()

	stats.CollectionCounts = s.collectionCounts(ctx)
	return &stats, nil
}

// Enqueue hands a sync job to the background consumer.
func (s *syncService) Enqueue(ctx context.Context, msg dto.SyncMessage) error {
	if s.publisher == nil {
		return ErrSyncQueueOff
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, payload)
}

func (s *syncService) indexReferences(ctx context.Context, store vectorstore.Store, refs []*entity.KnowledgeReference) (indexResult, error) {
	var res indexResult
	if len(refs) == 0 {
		return res, nil
	}

	ids := make([]string, 0, len(refs))
	var rejected []string
	live := make([]*entity.KnowledgeReference, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.Id.String())
		if ref.Status == entity.StatusRejected {
			rejected = append(rejected, ref.Id.String())
			continue
		}
		live = append(live, ref)
	}

	var vectors [][]float32
	if len(live) > 0 {
		texts := make([]string, len(live))
		for i, ref := range live {
			texts[i] = ReferenceSearchText(ref)
		}
		var err error
		vectors, err = s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			s.logger.Error("SyncService", "Failed to embed knowledge references", map[string]interface{}{
				"count": len(live),
				"error": err.Error(),
			})
			res.Failed, res.EmbedErr = len(live), err
			// indexed copies of the failed rows stay searchable until a later run
			ids, live = rejected, nil
		}
	}

	// the category may have changed since the last run
	if len(ids) > 0 {
		for _, c := range referenceCollections {
			if err := store.Delete(ctx, c, ids...); err != nil {
				return res, fmt.Errorf("delete from %s: %w", c, err)
			}
		}
	}
	if len(live) == 0 {
		return res, nil
	}

	records := make([]vectorstore.Record, 0, len(live)*2)
	for i, ref := range live {
		rec := referenceRecord(ref, vectors[i])
		records = append(records, rec)
		if c, ok := retrievalCollections[ref.Category]; ok {
			rec.Collection = c
			records = append(records, rec)
			res.Retrieval++
		}
	}
	if err := store.Upsert(ctx, records); err != nil {
		return res, fmt.Errorf("upsert knowledge references: %w", err)
	}
	res.Synced = len(live)
	return res, nil
}

func (s *syncService) indexTemplates(ctx context.Context, store vectorstore.Store, templates []*entity.JourneyTemplate) (indexResult, error) {
	var res indexResult
	if len(templates) == 0 {
		return res, nil
	}

	var rejected []string
	live := make([]*entity.JourneyTemplate, 0, len(templates))
	for _, tpl := range templates {
		if tpl.Status == entity.StatusRejected {
			rejected = append(rejected, tpl.Id.String())
			continue
		}
		live = append(live, tpl)
	}

	if len(rejected) > 0 {
		if err := store.Delete(ctx, vectorstore.CollectionTemplates, rejected...); err != nil {
			return res, fmt.Errorf("delete rejected templates: %w", err)
		}
	}
	if len(live) == 0 {
		return res, nil
	}

	texts := make([]string, len(live))
	for i, tpl := range live {
		texts[i] = TemplateSearchText(tpl)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		s.logger.Error("SyncService", "Failed to embed journey templates", map[string]interface{}{
			"count": len(live),
			"error": err.Error(),
		})
		res.Failed, res.EmbedErr = len(live), err
		return res, nil
	}

	records := make([]vectorstore.Record, len(live))
	for i, tpl := range live {
		records[i] = vectorstore.Record{
			ID:         tpl.Id.String(),
			Collection: vectorstore.CollectionTemplates,
			Content:    texts[i],
			Language:   tpl.Language,
			Title:      tpl.GoalKeyword,
			Metadata: map[string]string{
				generation.MetaIsActive: strconv.FormatBool(tpl.IsActive),
				generation.MetaPayload:  string(tpl.FullJSON),
				"goal_keyword":          tpl.GoalKeyword,
				"status":                tpl.Status,
			},
			Vector: vectors[i],
		}
	}
	if err := store.Upsert(ctx, records); err != nil {
		return res, fmt.Errorf("upsert journey templates: %w", err)
	}
	res.Synced = len(live)
	return res, nil
}

func referenceRecord(ref *entity.KnowledgeReference, vector []float32) vectorstore.Record {
	meta := map[string]string{
		"status": ref.Status,
		"tags":   strings.Join(ref.Tags, ","),
	}
	if ref.ContentAr != "" {
		meta[generation.MetaArabic] = ref.ContentAr
	}
	return vectorstore.Record{
		ID:         ref.Id.String(),
		Collection: vectorstore.CollectionKnowledge,
		Content:    ref.Content,
		Category:   ref.Category,
		Source:     ref.Source,
		Language:   ref.Language,
		Title:      ref.Title,
		Metadata:   meta,
		Vector:     vector,
	}
}

// ReferenceSearchText is the text embedded for a knowledge reference.
func ReferenceSearchText(ref *entity.KnowledgeReference) string {
	parts := []string{ref.Title, ref.Content, strings.Join(ref.Tags, " "), ref.Category}
	return joinNonEmpty(parts)
}

// TemplateSearchText is the text embedded for a journey template: keyword,
// tags and the introduction and goal of the stored plan.
func TemplateSearchText(tpl *entity.JourneyTemplate) string {
	parts := append([]string{tpl.GoalKeyword}, tpl.Tags...)

	var plan struct {
		Introduction any `json:"introduction"`
		Goal         any `json:"goal"`
	}
	if len(tpl.FullJSON) > 0 && json.Unmarshal(tpl.FullJSON, &plan) == nil {
		if intro, ok := plan.Introduction.(string); ok {
			parts = append(parts, intro)
		}
		if plan.Goal != nil {
			parts = append(parts, fmt.Sprint(plan.Goal))
		}
	}
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func (s *syncService) collectionCounts(ctx context.Context) map[string]int64 {
	store := s.uowFactory.NewUnitOfWork(ctx).SemanticStore()
	counts := make(map[string]int64, len(SyncedCollections))
	for _, c := range SyncedCollections {
		n, err := store.Count(ctx, c)
		if err != nil {
			s.logger.Warn("SyncService", "Failed to count collection", map[string]interface{}{
				"collection": c,
				"error":      err.Error(),
			})
			continue
		}
		counts[c] = n
	}
	return counts
}

func (s *syncService) publishCompleted(ctx context.Context, stats *dto.SyncStats) {
	if s.events == nil {
		return
	}
	event := events.NewSyncCompletedEvent(map[string]interface{}{
		"full_sync":            stats.FullSync,
		"knowledge_references": stats.KnowledgeReferencesSynced,
		"journey_templates":    stats.JourneyTemplatesSynced,
		"retrieval_documents":  stats.RetrievalDocumentsSynced,
		"errors":               stats.Errors,
		"duration_seconds":     stats.DurationSeconds,
	})
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("SyncService", "Failed to publish sync event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
