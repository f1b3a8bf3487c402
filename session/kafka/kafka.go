// Package kafka 通过 store/kafka 发布与消费会话生命周期事件。
package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"

	"github.com/kochabx/sessionkit/log"
	"github.com/kochabx/sessionkit/session"
	kitkafka "github.com/kochabx/sessionkit/store/kafka"
)

// HeaderType 消息头中的事件类型
const HeaderType = "event-type"

// Writer *kafka.Writer 满足该接口
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Reader *kafka.Reader 满足该接口
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher 把会话事件写入 Kafka，实现 session.Publisher
type Publisher struct {
	writer Writer
}

var _ session.Publisher = (*Publisher)(nil)

// NewPublisher 使用 client 在 topic 上的生产者
func NewPublisher(client *kitkafka.Client, topic string) (*Publisher, error) {
	w, err := client.Producer(topic)
	if err != nil {
		return nil, err
	}
	return NewPublisherWithWriter(w), nil
}

// NewPublisherWithWriter 使用任意 Writer
func NewPublisherWithWriter(w Writer) *Publisher {
	return &Publisher{writer: w}
}

// Publish 以用户 ID 为消息 key，同一用户的事件落在同一分区
func (p *Publisher) Publish(ctx context.Context, ev session.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	key := ev.UserID
	if key == "" {
		key = ev.SessionID
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: HeaderType, Value: []byte(ev.Type)}},
	})
}

// Handler 事件处理函数，返回错误时该消息不会提交
type Handler func(ctx context.Context, ev session.Event) error

// Subscribe 消费事件直到 ctx 结束。
// 无法解析的消息记录日志后提交跳过；handler 出错时返回该错误。
func Subscribe(ctx context.Context, r Reader, handler Handler, logger *log.Logger) error {
	if logger == nil {
		logger = log.G
	}
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var ev session.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			logger.Error().Str("topic", msg.Topic).Int64("offset", msg.Offset).Bytes("raw", msg.Value).Err(err).Msg("malformed session event")
		} else if err := handler(ctx, ev); err != nil {
			return err
		}

		if err := r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
