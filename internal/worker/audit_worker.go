package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/config"
	"github.com/spec-kit/employee-service/internal/events"
)

// AuditWorker records employee lifecycle events to the audit log and, when
// configured, forwards them to a webhook.
type AuditWorker struct {
	logger     *zap.Logger
	webhookURL string
	client     *http.Client
}

// NewAuditWorker constructs the worker.
func NewAuditWorker(cfg config.AuditConfig, logger *zap.Logger) *AuditWorker {
	return &AuditWorker{
		logger:     logger,
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Start subscribes the worker to all employee lifecycle events.
func (w *AuditWorker) Start(dispatcher events.Dispatcher) {
	if w == nil || dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventEmployeeCreated,
		events.EventEmployeeUpdated,
		events.EventEmployeeDeleted,
	} {
		dispatcher.Subscribe(eventType, w.handle)
	}
}

func (w *AuditWorker) handle(ctx context.Context, event events.Event) error {
	w.logger.Info("audit",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("employee_id", event.EmployeeID),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload),
	)

	if w.webhookURL == "" {
		return nil
	}
	return w.forward(ctx, event)
}

func (w *AuditWorker) forward(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("audit webhook delivery failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Warn("audit webhook rejected event", zap.Int("status", resp.StatusCode))
	}
	return nil
}
