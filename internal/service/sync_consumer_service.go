package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wildanku/hala-ai/internal/dto"
	"github.com/wildanku/hala-ai/internal/pkg/logger"
	"github.com/wildanku/hala-ai/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type ISyncConsumerService interface {
	Consume(ctx context.Context) error
	// HandleCatalogEvent reacts to catalog.updated events from the content admin.
	HandleCatalogEvent(ctx context.Context, event events.Event) error
}

type syncConsumerService struct {
	subscriber  message.Subscriber
	topicName   string
	syncService ISyncService
	logger      logger.ILogger
}

func NewSyncConsumerService(
	subscriber message.Subscriber,
	topicName string,
	syncService ISyncService,
	log logger.ILogger,
) ISyncConsumerService {
	return &syncConsumerService{
		subscriber:  subscriber,
		topicName:   topicName,
		syncService: syncService,
		logger:      log,
	}
}

func (cs *syncConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *syncConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SyncMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("SyncConsumer", "Failed to unmarshal sync message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed, retrying will not help
		return
	}

	err := cs.dispatch(ctx, payload)
	switch {
	case err == nil:
		msg.Ack()
	case errors.Is(err, ErrCatalogNotFound), errors.Is(err, ErrSyncInProgress):
		cs.logger.Warn("SyncConsumer", "Sync message dropped", map[string]interface{}{
			"kind":  payload.Kind,
			"id":    payload.ID,
			"error": err.Error(),
		})
		msg.Ack()
	default:
		cs.logger.Error("SyncConsumer", "Sync message failed", map[string]interface{}{
			"kind":  payload.Kind,
			"id":    payload.ID,
			"error": err.Error(),
		})
		msg.Nack()
	}
}

func (cs *syncConsumerService) dispatch(ctx context.Context, payload dto.SyncMessage) error {
	cs.logger.Info("SyncConsumer", "Processing sync message", map[string]interface{}{
		"kind":      payload.Kind,
		"id":        payload.ID,
		"full_sync": payload.FullSync,
	})

	switch payload.Kind {
	case SyncKindAll:
		_, err := cs.syncService.RunAll(ctx, payload.FullSync)
		return err
	case SyncKindKnowledgeReference, SyncKindJourneyTemplate:
		id, err := uuid.Parse(payload.ID)
		if err != nil {
			return fmt.Errorf("%w: invalid id %q", ErrCatalogNotFound, payload.ID)
		}
		if payload.Kind == SyncKindKnowledgeReference {
			return cs.syncService.SyncKnowledgeReference(ctx, id)
		}
		return cs.syncService.SyncJourneyTemplate(ctx, id)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrCatalogNotFound, payload.Kind)
	}
}

// HandleCatalogEvent expects {"kind": "knowledge_reference"|"journey_template", "id": "..."}.
// Unknown or missing rows are acknowledged so the bus does not redeliver them.
func (cs *syncConsumerService) HandleCatalogEvent(ctx context.Context, event events.Event) error {
	data := event.Payload()
	kind, _ := data["kind"].(string)
	id, _ := data["id"].(string)

	err := cs.dispatch(ctx, dto.SyncMessage{Kind: kind, ID: id})
	if errors.Is(err, ErrCatalogNotFound) {
		cs.logger.Warn("SyncConsumer", "Catalog event ignored", map[string]interface{}{
			"kind":  kind,
			"id":    id,
			"error": err.Error(),
		})
		return nil
	}
	return err
}
