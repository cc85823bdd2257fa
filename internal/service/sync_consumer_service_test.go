package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wildanku/hala-ai/internal/pkg/logger"
	"github.com/wildanku/hala-ai/pkg/embedding/embeddingtest"
	"github.com/wildanku/hala-ai/pkg/events"
	"github.com/wildanku/hala-ai/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogEvent(kind, id string) events.Event {
	return events.BaseEvent{
		Type:       events.TypeCatalogUpdated,
		Data:       map[string]interface{}{"kind": kind, "id": id},
		OccurredAt: time.Now(),
	}
}

func TestHandleCatalogEvent(t *testing.T) {
	catalog := newFakeCatalog()
	seedCatalog(catalog, time.Now())
	log := logger.NewNopLogger()
	svc := NewSyncService(catalog, embeddingtest.New(), nil, nil, nil, log)
	consumer := NewSyncConsumerService(nil, "", svc, log)
	ctx := context.Background()

	require.NoError(t, consumer.HandleCatalogEvent(ctx, catalogEvent(SyncKindKnowledgeReference, hadithID.String())))
	n, err := catalog.store.Count(ctx, vectorstore.CollectionHadith)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, consumer.HandleCatalogEvent(ctx, catalogEvent(SyncKindJourneyTemplate, templateID.String())))
	n, err = catalog.store.Count(ctx, vectorstore.CollectionTemplates)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// acknowledged, nothing to redeliver
	assert.NoError(t, consumer.HandleCatalogEvent(ctx, catalogEvent(SyncKindKnowledgeReference, "not-a-uuid")))
	assert.NoError(t, consumer.HandleCatalogEvent(ctx, catalogEvent("notebook", "x")))

	// infrastructure failures are returned so the bus redelivers
	catalog.findErr = errors.New("connection refused")
	assert.Error(t, consumer.HandleCatalogEvent(ctx, catalogEvent(SyncKindKnowledgeReference, hadithID.String())))
}

func TestProcessMessageAcks(t *testing.T) {
	catalog := newFakeCatalog()
	seedCatalog(catalog, time.Now())
	log := logger.NewNopLogger()
	svc := NewSyncService(catalog, embeddingtest.New(), nil, nil, nil, log)
	cs := NewSyncConsumerService(nil, "", svc, log).(*syncConsumerService)

	tests := []struct {
		name    string
		payload string
		findErr error
		acked   bool
	}{
		{"malformed", `{"kind":`, nil, true},
		{"unknown id", `{"kind":"journey_template","id":"00000000-0000-0000-0000-000000000000"}`, nil, true},
		{"synced", `{"kind":"knowledge_reference","id":"` + verseID.String() + `"}`, nil, true},
		{"database down", `{"kind":"all"}`, errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog.findErr = tt.findErr
			msg := message.NewMessage(watermill.NewUUID(), []byte(tt.payload))

			cs.processMessage(context.Background(), msg)

			select {
			case <-msg.Acked():
				assert.True(t, tt.acked)
			case <-msg.Nacked():
				assert.False(t, tt.acked)
			default:
				t.Fatal("message neither acked nor nacked")
			}
		})
	}
}
