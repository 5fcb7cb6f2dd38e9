package worker

import (
	"context"
	"encoding/json"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/analytics"
	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/logx"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/metrics"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/rmq"
)

type rollupStore interface {
	UpsertDailyStats(ctx context.Context, campaignID, clientID int64, day time.Time, sent, opened, clicked int) (bool, error)
}

type consumer interface {
	Consume() (<-chan amqp.Delivery, error)
}

type requeuer interface {
	PublishJSONWithHeaders(ctx context.Context, body []byte, headers amqp.Table) error
}

// Worker folds published send events into the per-day campaign rollup.
type Worker struct {
	Store      rollupStore
	Cons       consumer
	Pub        requeuer
	Queue      string
	Loc        *time.Location
	MaxRetries int
	// Sleep waits out the retry backoff; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

func New(st rollupStore, cons *rmq.Consumer, pub *rmq.Publisher, loc *time.Location, maxRetries int) *Worker {
	if loc == nil {
		loc = time.UTC
	}
	return &Worker{
		Store:      st,
		Cons:       cons,
		Pub:        pub,
		Queue:      cons.Queue,
		Loc:        loc,
		MaxRetries: maxRetries,
		Sleep:      sleepCtx,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.Cons.Consume()
	if err != nil {
		return err
	}
	logx.L().Infow("worker_started", "queue", w.Queue)

	for {
		select {
		case <-ctx.Done():
			logx.L().Infow("worker_stopping")
			return ctx.Err()

		case d, ok := <-msgs:
			if !ok {
				logx.L().Warnw("consumer_channel_closed")
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	start := time.Now()
	defer func() { metrics.WorkerProcessDuration.Observe(time.Since(start).Seconds()) }()
	metrics.WorkerEventsConsumed.Inc()

	var msg campaign.SendEventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logx.L().Warnw("event_unmarshal_error", "error", err)
		metrics.WorkerEventsDropped.Inc()
		_ = d.Ack(false)
		return
	}
	fields := []any{
		"campaign_id", msg.CampaignID,
		"client_id", msg.ClientID,
		"status", msg.Status,
	}
	if err := msg.Validate(); err != nil {
		logx.L().Warnw("event_invalid", append(fields, "error", err)...)
		metrics.WorkerEventsDropped.Inc()
		_ = d.Ack(false)
		return
	}

	sent, opened, clicked := counts(msg.SendEvent)
	day := rollupDay(msg.SentAt, w.Loc)

	ctx1, cancel := context.WithTimeout(ctx, 5*time.Second)
	applied, err := w.Store.UpsertDailyStats(ctx1, msg.CampaignID, msg.ClientID, day, sent, opened, clicked)
	cancel()
	if err != nil {
		logx.L().Errorw("db_upsert_daily_stats_error", append(fields, "error", err)...)
		w.retry(ctx, d, fields)
		return
	}
	if !applied {
		metrics.WorkerEventsDuplicate.Inc()
		logx.L().Infow("event_duplicate", fields...)
		_ = d.Ack(false)
		return
	}

	metrics.WorkerEventsApplied.WithLabelValues(string(msg.Status)).Inc()
	logx.L().Infow("event_applied", append(fields, "day", day.Format("2006-01-02"))...)
	_ = d.Ack(false)
}

// retry republishes d with a bumped retry header after a backoff, or drops
// it once MaxRetries is reached.
func (w *Worker) retry(ctx context.Context, d amqp.Delivery, fields []any) {
	retries := rmq.Retries(d.Headers)
	if retries >= w.MaxRetries {
		logx.L().Warnw("drop_after_retries", append(fields, "retries", retries)...)
		metrics.WorkerEventsDropped.Inc()
		_ = d.Ack(false)
		return
	}

	delay := backoffDelay(retries + 1)
	metrics.WorkerEventRetries.Inc()
	logx.L().Infow("retry_requeue", append(fields, "retries", retries+1, "delay", delay.String())...)
	if err := w.requeueMessage(ctx, d, retries+1, delay); err != nil {
		logx.L().Errorw("retry_publish_error", append(fields, "retries", retries+1, "error", err)...)
		_ = d.Nack(false, true)
	}
}

func (w *Worker) requeueMessage(ctx context.Context, d amqp.Delivery, retries int, delay time.Duration) error {
	if err := w.Sleep(ctx, delay); err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := w.Pub.PublishJSONWithHeaders(pubCtx, d.Body, rmq.WithRetries(d.Headers, retries)); err != nil {
		return err
	}

	return d.Ack(false)
}

// counts is the rollup contribution of one send.
func counts(ev campaign.SendEvent) (sent, opened, clicked int) {
	sent = 1
	if ev.IsOpened() {
		opened = 1
	}
	if ev.IsClicked() {
		clicked = 1
	}
	return sent, opened, clicked
}

// rollupDay is the calendar day of sentAt in loc, as midnight UTC so the
// driver stores the same DATE whatever the session zone.
func rollupDay(sentAt time.Time, loc *time.Location) time.Time {
	d := analytics.DateOf(sentAt, loc)
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func backoffDelay(retries int) time.Duration {
	if retries <= 0 {
		return 0
	}
	sec := math.Pow(2, float64(retries-1))
	return time.Duration(sec) * time.Second
}
