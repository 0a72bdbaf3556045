package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/model"
)

const auditQueue = "assignment.audit"

// AuditFeed publishes assignment records to a durable queue so external
// consumers (reporting, compliance) can follow the audit trail without
// access to the database. Publishing is best effort; a broker outage never
// fails the assignment itself.
type AuditFeed struct {
	url string
}

func NewAuditFeed(url string) *AuditFeed {
	return &AuditFeed{url: url}
}

// PublishAssignment sends one audit record. The connection is opened per
// publish; assignment volume is operator-driven and low.
func (f *AuditFeed) PublishAssignment(ctx context.Context, rec model.AssignmentHistoryEntry) error {
	conn, err := amqp.Dial(f.url)
	if err != nil {
		log.Error().Err(err).Msg("audit feed: failed to connect to broker")
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("audit feed: failed to open channel")
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		auditQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Error().Err(err).Msg("audit feed: failed to declare queue")
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		"",     // default exchange
		q.Name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		log.Error().Err(err).Msg("audit feed: failed to publish record")
		return fmt.Errorf("failed to publish audit record: %w", err)
	}

	log.Debug().
		Int("history_id", rec.ID).
		Str("display", rec.DisplayName).
		Str("action", rec.Action).
		Msg("published assignment audit record")
	return nil
}
