// Package events 把完成的分析以 JSON 消息发布到 Kafka。
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/segmentio/kafka-go"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/usecase"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/assembler"
)

const defaultTopic = "invest_radar.analyses"

// AnalysisCompleted 消息体
type AnalysisCompleted struct {
	ID         int64              `json:"id"`
	UserID     int64              `json:"user_id"`
	Query      string             `json:"query"`
	Result     assembler.Response `json:"result"`
	CreatedAt  string             `json:"created_at"`
	OccurredAt string             `json:"occurred_at"`
}

// messageWriter kafka.Writer 中用到的方法
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 同步写入 Kafka
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *log.Helper
	now    func() time.Time
}

// NopPublisher 未配置 broker 时使用
type NopPublisher struct{}

func (NopPublisher) PublishAnalysis(context.Context, *domain.Analysis) error { return nil }

var (
	_ usecase.AnalysisPublisher = (*KafkaPublisher)(nil)
	_ usecase.AnalysisPublisher = NopPublisher{}
)

// NewPublisher 根据配置创建发布器，Brokers 为空时返回 NopPublisher
func NewPublisher(c *conf.Events, logger log.Logger) (usecase.AnalysisPublisher, func(), error) {
	helper := log.NewHelper(logger)
	if c == nil || len(c.Brokers) == 0 {
		helper.Info("events disabled: no kafka brokers configured")
		return NopPublisher{}, func() {}, nil
	}
	topic := c.Topic
	if topic == "" {
		topic = defaultTopic
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
	}
	p := newKafkaPublisher(w, topic, logger)
	cleanup := func() {
		if err := w.Close(); err != nil {
			helper.Errorf("close kafka writer: %v", err)
		}
	}
	helper.Infof("events enabled: topic %s, brokers %v", topic, c.Brokers)
	return p, cleanup, nil
}

func newKafkaPublisher(w messageWriter, topic string, logger log.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, log: log.NewHelper(logger), now: time.Now}
}

// PublishAnalysis 以分析 ID 作为消息 key，同一分析总落在同一分区
func (p *KafkaPublisher) PublishAnalysis(ctx context.Context, a *domain.Analysis) error {
	body, err := json.Marshal(AnalysisCompleted{
		ID:         a.ID,
		UserID:     a.UserID,
		Query:      a.Query,
		Result:     a.Result,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
		OccurredAt: p.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(a.ID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("analysis.completed")},
			{Key: "run_id", Value: []byte(a.Result.RunID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	p.log.WithContext(ctx).Debugf("published analysis %d to %s", a.ID, p.topic)
	return nil
}
