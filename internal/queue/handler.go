package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/lorebase/lorebase/internal/ingest"
	"github.com/lorebase/lorebase/pkg/common"
	"github.com/lorebase/lorebase/pkg/leaselock"
	"github.com/lorebase/lorebase/pkg/logger"
)

// maxRetries is how often a message is retried before it goes to the DLQ.
const maxRetries = 10

// IngestMsg is the payload of IngestQueue messages.
type IngestMsg struct {
	Message  string           `json:"message"`
	Articles []common.Article `json:"articles"`

	// RebuildGazetteer requests a rebuild once the batch is stored.
	RebuildGazetteer bool `json:"rebuild_gazetteer"`
}

// RebuildMsg is the payload of RebuildQueue messages. An empty name list
// rebuilds from the stored corpus titles.
type RebuildMsg struct {
	Message string   `json:"message"`
	Names   []string `json:"names"`
}

// ProcessIngestMessage stores one article batch and optionally extends
// the gazetteer with the batch's names.
func ProcessIngestMessage(ctx context.Context, pipeline *ingest.Pipeline, ch *amqp091.Channel, msg string) error {
	var data IngestMsg
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		return fmt.Errorf("bad ingest message: %w", err)
	}
	if len(data.Articles) == 0 {
		logger.Warn("[Queue] Ingest message without articles, skipping")
		return nil
	}

	if err := pipeline.IngestArticles(ctx, data.Articles); err != nil {
		return err
	}
	logger.Info("[Queue] Ingested article batch", "articles", len(data.Articles))

	if !data.RebuildGazetteer {
		return nil
	}

	rebuild := RebuildMsg{
		Message: "Rebuild after ingest",
		Names:   ingest.GazetteerNames(data.Articles),
	}
	msgBytes, err := json.Marshal(rebuild)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, RebuildQueue, msgBytes)
}

// ProcessRebuildMessage replaces the gazetteer name list under the
// rebuild lease. A busy lease is not an error: another worker is already
// rebuilding.
func ProcessRebuildMessage(ctx context.Context, pipeline *ingest.Pipeline, msg string) error {
	var data RebuildMsg
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		return fmt.Errorf("bad rebuild message: %w", err)
	}

	err := pipeline.RebuildGazetteer(ctx, data.Names)
	if errors.Is(err, leaselock.ErrBusy) {
		logger.Info("[Queue] Rebuild already in progress elsewhere, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("[Queue] Gazetteer rebuilt", "names", len(data.Names))
	return nil
}

// HandleProcessingError routes a failed message to its retry queue, or
// to the DLQ once the retry budget is exhausted.
func HandleProcessingError(ch *amqp091.Channel, msg amqp091.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	if retries >= maxRetries {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp091.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp091.Table{}
	}
	headers["x-retries"] = int32(retries + 1)

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         msg.Body,
			Headers:      headers,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
