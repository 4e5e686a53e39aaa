package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelRenderProgress = "render_progress"
)

// ProgressMessage 预渲染进度消息
type ProgressMessage struct {
	Type          string `json:"type"`
	DocumentID    int64  `json:"document_id"`
	JobID         int64  `json:"job_id"`
	Status        string `json:"status"`
	Step          string `json:"step"`
	PagesTotal    int    `json:"pages_total,omitempty"`
	PagesRendered int    `json:"pages_rendered,omitempty"`
	Progress      int    `json:"progress"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// 进度阶段常量
const (
	StepCounting  = "counting"
	StepRendering = "rendering"
	StepThumbnail = "thumbnail"
	StepDone      = "done"
)

// 阶段对应的消息
var StepMessages = map[string]string{
	StepCounting:  "正在统计页数",
	StepRendering: "正在渲染页面",
	StepThumbnail: "正在生成封面",
	StepDone:      "预渲染完成",
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress 发布进度消息
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Type = "render_progress"

	// 自动填充进度和消息
	if msg.Progress == 0 && msg.PagesTotal > 0 {
		msg.Progress = msg.PagesRendered * 100 / msg.PagesTotal
	}
	if msg.Message == "" && msg.Step != "" {
		if message, ok := StepMessages[msg.Step]; ok {
			msg.Message = message
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelRenderProgress, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅进度消息
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelRenderProgress)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&progressMsg)
		}
	}
}
