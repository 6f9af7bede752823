package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mealtrack/internal/model"
)

const (
	defaultQueueSize    = 1024
	defaultWorkers      = 2
	defaultWriteTimeout = 5 * time.Second
)

// 送信結果。メトリクスのラベルに使用する。
const (
	ResultPublished = "published"
	ResultDropped   = "dropped"
	ResultFailed    = "failed"
)

// Recorder は送信結果のメトリクス記録インターフェース。
type Recorder interface {
	RecordInteraction(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordInteraction(string) {}

// Publisher は操作イベントを固定長のキューに積み、ワーカーがSinkへ送信する。
// 呼び出し側をブロックせず、送信の失敗は呼び出し側に返さない。
type Publisher struct {
	sink         Sink
	logger       *slog.Logger
	recorder     Recorder
	writeTimeout time.Duration
	now          func() time.Time

	queue  chan model.DiscoverInteraction
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewPublisher はPublisherを生成し、ワーカーを起動する。
// queueSize, workersが0以下の場合はデフォルト値（1024, 2）を使用する。
func NewPublisher(sink Sink, logger *slog.Logger, recorder Recorder, queueSize, workers int) *Publisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	p := &Publisher{
		sink:         sink,
		logger:       logger,
		recorder:     recorder,
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
		queue:        make(chan model.DiscoverInteraction, queueSize),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}

	return p
}

// Publish は操作イベントをキューに積む。
// IDと発生日時が未設定の場合は補完する。
// キューが満杯、またはClose後の場合はイベントを破棄してfalseを返す。
func (p *Publisher) Publish(event model.DiscoverInteraction) bool {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.drop(event, "closed")
		return false
	}

	select {
	case p.queue <- event:
		return true
	default:
		p.drop(event, "queue_full")
		return false
	}
}

func (p *Publisher) drop(event model.DiscoverInteraction, reason string) {
	p.logger.Warn("操作イベントを破棄しました",
		slog.String("event_id", event.ID),
		slog.String("user_id", event.UserID),
		slog.String("post_id", event.PostID),
		slog.String("reason", reason),
	)
	p.recorder.RecordInteraction(ResultDropped)
}

func (p *Publisher) run() {
	defer p.wg.Done()

	for event := range p.queue {
		p.write(event)
	}
}

func (p *Publisher) write(event model.DiscoverInteraction) {
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	if err := p.sink.Write(ctx, &event); err != nil {
		p.logger.Error("操作イベントの送信に失敗しました",
			slog.String("event_id", event.ID),
			slog.String("user_id", event.UserID),
			slog.String("post_id", event.PostID),
			slog.String("action", string(event.Action)),
			slog.String("error", err.Error()),
		)
		p.recorder.RecordInteraction(ResultFailed)
		return
	}
	p.recorder.RecordInteraction(ResultPublished)
}

// Close は新規のPublishを止め、キューに残ったイベントを送信し終えてからSinkを閉じる。
// 複数回呼び出しても安全。
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.sink.Close()
}
