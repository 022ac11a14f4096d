package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/St1cky1/todo-service/internal/infrastructure/client"
	"github.com/St1cky1/todo-service/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnectDelay = 5 * time.Second

// outcome of handling one delivery
type outcome int

const (
	ack outcome = iota
	drop
	requeue
)

// AuditWorker consumes audit messages and stores them in task_audit.
type AuditWorker struct {
	url       string
	queueName string
	auditRepo repository.ITaskAuditRepository
	logger    *slog.Logger
}

func NewAuditWorker(url, queueName string, auditRepo repository.ITaskAuditRepository, logger *slog.Logger) *AuditWorker {
	return &AuditWorker{
		url:       url,
		queueName: queueName,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Start blocks until ctx is cancelled, reconnecting after broker failures.
func (w *AuditWorker) Start(ctx context.Context) {
	w.logger.Info("audit worker started", "queue", w.queueName)

	for {
		err := w.consume(ctx)
		if ctx.Err() != nil {
			w.logger.Info("audit worker stopped")
			return
		}
		w.logger.Error("audit worker disconnected, reconnecting", "error", err, "delay", reconnectDelay)

		select {
		case <-ctx.Done():
			w.logger.Info("audit worker stopped")
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (w *AuditWorker) consume(ctx context.Context) error {
	// Отдельное соединение для consumer'а
	conn, err := amqp.Dial(w.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer channel.Close()

	if _, err := client.DeclareAuditQueue(channel, w.queueName); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	msgs, err := channel.Consume(
		w.queueName,    // queue
		"audit_worker", // consumer tag
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			w.settle(msg, w.handle(ctx, msg.Body))
		}
	}
}

func (w *AuditWorker) settle(msg amqp.Delivery, result outcome) {
	var err error
	switch result {
	case ack:
		err = msg.Ack(false)
	case drop:
		err = msg.Nack(false, false)
	case requeue:
		err = msg.Nack(false, true)
	}
	if err != nil {
		w.logger.Error("settle delivery failed", "delivery_tag", msg.DeliveryTag, "error", err)
	}
}

// handle decides the fate of a message: malformed bodies are dropped,
// storage failures are requeued.
func (w *AuditWorker) handle(ctx context.Context, body []byte) outcome {
	var auditMsg entity.AuditMessage
	if err := json.Unmarshal(body, &auditMsg); err != nil {
		w.logger.Error("malformed audit message", "error", err)
		return drop
	}

	taskAudit, err := convertToTaskAudit(&auditMsg)
	if err != nil {
		w.logger.Error("convert audit message", "message_id", auditMsg.MessageID, "error", err)
		return drop
	}

	if err := w.auditRepo.Create(ctx, taskAudit); err != nil {
		w.logger.Error("store audit record", "message_id", auditMsg.MessageID, "error", err)
		return requeue
	}

	w.logger.Debug("audit stored", "action", taskAudit.Action, "task_id", taskAudit.EntityID)
	return ack
}

func convertToTaskAudit(msg *entity.AuditMessage) (*entity.TaskAudit, error) {
	if msg.Action == "" || msg.EntityID == 0 {
		return nil, fmt.Errorf("audit message missing action or entity id")
	}

	oldValues, err := jsonString(msg.OldValues)
	if err != nil {
		return nil, err
	}
	newValues, err := jsonString(msg.NewValues)
	if err != nil {
		return nil, err
	}
	changes, err := jsonString(msg.Changes)
	if err != nil {
		return nil, err
	}

	changedAt := msg.Timestamp
	if changedAt.IsZero() {
		changedAt = time.Now().UTC()
	}

	return &entity.TaskAudit{
		Username:   msg.Username,
		Action:     msg.Action,
		EntityType: "task",
		EntityID:   msg.EntityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Changes:    changes,
		ChangedAt:  changedAt,
	}, nil
}

// jsonString конвертирует map[string]any в JSON строку; nil остается nil
func jsonString(values map[string]any) (*string, error) {
	if values == nil {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
