package dto

import "time"

type RunSyncRequest struct {
	FullSync bool `json:"full_sync"`
	// Async queues the run on the sync topic and returns immediately.
	Async bool `json:"async"`
}

// SyncMessage is the payload on the sync topic.
type SyncMessage struct {
	Kind     string `json:"kind"` // "all", "knowledge_reference", "journey_template"
	ID       string `json:"id,omitempty"`
	FullSync bool   `json:"full_sync,omitempty"`
}

type SyncStats struct {
	KnowledgeReferencesSynced int              `json:"knowledge_references_synced"`
	JourneyTemplatesSynced    int              `json:"journey_templates_synced"`
	RetrievalDocumentsSynced  int              `json:"retrieval_documents_synced"`
	Errors                    int              `json:"errors"`
	FullSync                  bool             `json:"full_sync"`
	StartTime                 time.Time        `json:"start_time"`
	EndTime                   time.Time        `json:"end_time"`
	DurationSeconds           float64          `json:"duration_seconds"`
	CollectionCounts          map[string]int64 `json:"collection_counts,omitempty"`
}

type SyncQueuedResponse struct {
	Queued bool   `json:"queued"`
	Kind   string `json:"kind"`
	ID     string `json:"id,omitempty"`
}
