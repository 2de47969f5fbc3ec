package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal/core/events"
)

// Job carries one notification to deliver. Delivery is best-effort: a failed
// webhook is logged and dropped, never retried into the approval flow.
type Job struct {
	EventID    string
	EventType  string
	Subject    string
	Recipients []int64
	Payload    map[string]interface{}
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing notification", "worker_id", w.ID, "event_id", job.EventID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	Enabled         bool
	WebhookURL      string
	DeliveryTimeout time.Duration
	MaxWorkers      int
	JobQueueSize    int
	WorkerPoolSize  int
}

// Dispatcher fans timesheet lifecycle events out to the notification webhook
// through a bounded worker pool.
type Dispatcher struct {
	webhookURL      string
	deliveryTimeout time.Duration
	enabled         bool
	logger          *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatcher(config Config, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	workerPoolSize := config.WorkerPoolSize
	if workerPoolSize <= 0 {
		workerPoolSize = maxWorkers
	}

	deliveryTimeout := config.DeliveryTimeout
	if deliveryTimeout <= 0 {
		deliveryTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		webhookURL:      config.WebhookURL,
		deliveryTimeout: deliveryTimeout,
		enabled:         config.Enabled,
		logger:          logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, jobQueueSize),
		workerPool: make(chan chan Job, workerPoolSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.startWorkerPool()

	return d
}

func (d *Dispatcher) startWorkerPool() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.deliver)
		}

		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	d.wg.Add(1)
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- job:

				case <-d.ctx.Done():
					d.logger.Info("notification dispatcher shutting down")
					return
				}
			case <-d.ctx.Done():
				d.logger.Info("notification dispatcher shutting down")
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down notification dispatcher")
	d.cancel()
	d.wg.Wait()
	d.logger.Info("notification dispatcher shutdown complete")
}

// RegisterHandlers subscribes the dispatcher to the timesheet lifecycle
// events. Handlers only enqueue; delivery happens on the pool.
func (d *Dispatcher) RegisterHandlers(bus *events.EventBus) {
	subjects := map[string]string{
		events.EventTypeTimesheetFinalized:       "Timesheet submitted for client approval",
		events.EventTypeTimesheetClientApproved:  "Timesheet approved by client",
		events.EventTypeTimesheetManagerApproved: "Timesheet completed",
		events.EventTypeTimesheetRejected:        "Timesheet rejected",
	}

	for eventType, subject := range subjects {
		bus.Subscribe(eventType, d.handlerFor(subject))
	}
}

func (d *Dispatcher) handlerFor(subject string) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		if !d.enabled {
			d.logger.Debug("notifications disabled, dropping event", "event_type", event.EventType())
			return nil
		}

		job := Job{
			EventID:   event.EventID(),
			EventType: event.EventType(),
			Subject:   subject,
		}
		if ts, ok := event.(*events.TimesheetEvent); ok {
			job.Recipients = ts.Recipients
		}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			job.Payload = data
		}

		select {
		case d.jobQueue <- job:
			d.logger.Info("notification queued",
				"event_type", job.EventType,
				"event_id", job.EventID,
				"queue_length", len(d.jobQueue))
		default:
			d.logger.Warn("notification queue full, dropping event",
				"event_type", job.EventType,
				"event_id", job.EventID,
				"queue_capacity", cap(d.jobQueue))
		}
		return nil
	}
}

func (d *Dispatcher) deliver(job Job) {
	if d.webhookURL == "" {
		// No sink configured; the structured log line is the notification.
		d.logger.Info("notification",
			"subject", job.Subject,
			"event_type", job.EventType,
			"event_id", job.EventID,
			"recipients", job.Recipients,
			"payload", job.Payload)
		return
	}

	if err := d.postWebhook(job); err != nil {
		d.logger.Error("notification delivery failed",
			"error", err,
			"event_type", job.EventType,
			"event_id", job.EventID,
			"webhook_url", d.webhookURL)
		return
	}

	d.logger.Info("notification delivered",
		"event_type", job.EventType,
		"event_id", job.EventID)
}

func (d *Dispatcher) postWebhook(job Job) error {
	payload := map[string]interface{}{
		"event_id":   job.EventID,
		"event_type": job.EventType,
		"subject":    job.Subject,
		"recipients": job.Recipients,
		"data":       job.Payload,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", d.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: d.deliveryTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
