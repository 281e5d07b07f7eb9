package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/resilience"
)

const (
	queueGroup     = "archivers"
	headerRecordID = "Record-Id"
	eventVersion   = 1
)

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ClientName           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url, connectOptions(options, logger)...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

// connectOptions keeps reconnecting for about two minutes by default so the
// API survives a broker restart without dropping records.
func connectOptions(options Options, logger *slog.Logger) []nats.Option {
	name := options.ClientName
	if name == "" {
		name = "keyword-intelligence"
	}
	retry := true
	if options.RetryOnFailedConnect != nil {
		retry = *options.RetryOnFailedConnect
	}
	return []nats.Option{
		nats.Name(name),
		nats.Timeout(positiveOr(options.ConnectTimeout, 2*time.Second)),
		nats.ReconnectWait(positiveOr(options.ReconnectWait, 2*time.Second)),
		nats.MaxReconnects(positiveOr(options.MaxReconnects, 60)),
		nats.RetryOnFailedConnect(retry),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "client", name, "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "client", name, "url", nc.ConnectedUrl())
		}),
	}
}

func positiveOr[T int | time.Duration](value, fallback T) T {
	if value > 0 {
		return value
	}
	return fallback
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// recordEvent is the wire shape of an "extraction completed" event.
type recordEvent struct {
	Version int                     `json:"version"`
	Record  domain.ExtractionRecord `json:"record"`
}

func encodeRecord(subject string, record domain.ExtractionRecord) (*nats.Msg, error) {
	payload, err := json.Marshal(recordEvent{Version: eventVersion, Record: record})
	if err != nil {
		return nil, fmt.Errorf("encode record event: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set(headerRecordID, record.ID)
	msg.Data = payload
	return msg, nil
}

func decodeRecord(data []byte) (domain.ExtractionRecord, error) {
	var event recordEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.ExtractionRecord{}, domain.WrapError(domain.ErrInvalidInput, "decode record event", err)
	}
	if event.Version != eventVersion {
		return domain.ExtractionRecord{}, domain.WrapError(domain.ErrInvalidInput, "decode record event",
			fmt.Errorf("unsupported version %d", event.Version))
	}
	return event.Record, nil
}

func (q *Queue) PublishRecord(ctx context.Context, record domain.ExtractionRecord) error {
	msg, err := encodeRecord(q.subject, record)
	if err != nil {
		return err
	}
	publish := func(context.Context) (struct{}, error) {
		return struct{}{}, q.conn.PublishMsg(msg)
	}
	if _, err := resilience.Call(ctx, q.executor, "nats.publish:"+q.subject, publish, classifyNATSError); err != nil {
		return publishError(record.ID, fmt.Errorf("nats publish: %w", err))
	}
	return nil
}

// SubscribeRecords delivers events to handler until ctx is cancelled, then
// drains the subscription.
func (q *Queue) SubscribeRecords(ctx context.Context, handler func(context.Context, domain.ExtractionRecord) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		record, err := decodeRecord(msg.Data)
		if err != nil {
			q.logger.Error("record_event_decode_failed", "record_id", msg.Header.Get(headerRecordID), "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, record); err != nil {
			if domain.IsKind(err, domain.ErrInvalidInput) {
				q.logger.Warn("record_rejected", "record_id", record.ID, "error", err)
				return
			}
			q.logger.Error("record_handler_failed", "record_id", record.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
