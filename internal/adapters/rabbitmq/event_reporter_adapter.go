package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"import-claim-service/internal/constants"
	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/contracts"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
	"import-claim-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// eventEnvelope - общий конверт доменного события.
type eventEnvelope struct {
	EventID      string      `json:"event_id"`
	EventType    string      `json:"event_type"`
	EventVersion string      `json:"event_version"`
	OccurredAt   time.Time   `json:"occurred_at"`
	Payload      interface{} `json:"payload"`
}

type batchCompletedPayload struct {
	BatchID       string    `json:"batch_id"`
	SourceKind    string    `json:"source_kind"`
	SourceName    string    `json:"source_name"`
	TotalRecords  int       `json:"total_records"`
	ImportedCount int       `json:"imported_count"`
	FailedCount   int       `json:"failed_count"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type propertyClaimedPayload struct {
	PropertyID string    `json:"property_id"`
	BatchID    string    `json:"batch_id"`
	ClaimedBy  string    `json:"claimed_by"`
	ClaimedAt  time.Time `json:"claimed_at"`
}

// EventReporterAdapter публикует доменные события в общий обменник
// маркетплейса. Каждое событие перед отправкой проверяется по своей
// JSON-схеме: невалидное событие - баг продюсера, его нельзя отдавать
// подписчикам.
type EventReporterAdapter struct {
	producer *rabbitmq_producer.Publisher
}

func NewEventReporterAdapter(producer *rabbitmq_producer.Publisher) (*EventReporterAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &EventReporterAdapter{producer: producer}, nil
}

func (a *EventReporterAdapter) ReportBatchCompleted(ctx context.Context, batch *domain.ImportBatch) error {
	payload := batchCompletedPayload{
		BatchID:       batch.ID.String(),
		SourceKind:    batch.SourceKind,
		SourceName:    batch.SourceName,
		TotalRecords:  batch.TotalRecords,
		ImportedCount: batch.ImportedCount,
		FailedCount:   batch.FailedCount,
		ExpiresAt:     batch.ExpiresAt,
	}
	return a.publish(ctx, "ImportBatchCompletedEvent", constants.RoutingKeyBatchCompleted, payload)
}

func (a *EventReporterAdapter) ReportPropertyClaimed(ctx context.Context, property *domain.ImportedProperty) error {
	payload := propertyClaimedPayload{
		PropertyID: property.ID.String(),
		BatchID:    property.ImportBatchID.String(),
	}
	if property.ClaimedBy != nil {
		payload.ClaimedBy = *property.ClaimedBy
	}
	if property.ClaimedAt != nil {
		payload.ClaimedAt = *property.ClaimedAt
	}
	return a.publish(ctx, "PropertyClaimedEvent", constants.RoutingKeyPropertyClaimed, payload)
}

func (a *EventReporterAdapter) publish(ctx context.Context, eventType, routingKey string, payload interface{}) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "EventReporterAdapter",
		"event_type":  eventType,
		"routing_key": routingKey,
	})

	envelope := eventEnvelope{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		EventVersion: "1.0.0",
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal %s: %w", eventType, err)
	}

	if err := contracts.ValidateEvent(eventType, envelope.EventVersion, body); err != nil {
		adapterLogger.Error("Event failed schema validation, refusing to publish", err, nil)
		return fmt.Errorf("rabbitmq adapter: %s failed schema validation: %w", eventType, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      make(amqp.Table),
	}

	traceID := contextkeys.TraceIDFromContext(ctx)
	if traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	adapterLogger.Info("Publishing domain event", nil)
	if err := a.producer.Publish(publishCtx, routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish domain event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish %s: %w", eventType, err)
	}

	adapterLogger.Info("Successfully published domain event", nil)
	return nil
}
