package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestPublishSubscribe(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *ProgressMessage, 1)
	go func() {
		_ = subscriber.Subscribe(ctx, func(msg *ProgressMessage) {
			received <- msg
		})
	}()

	// 等待订阅建立
	time.Sleep(100 * time.Millisecond)

	err := publisher.PublishProgress(ctx, &ProgressMessage{
		DocumentID:    7,
		JobID:         3,
		Status:        "processing",
		Step:          StepRendering,
		PagesTotal:    10,
		PagesRendered: 5,
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, int64(7), msg.DocumentID)
		assert.Equal(t, "render_progress", msg.Type)
		assert.Equal(t, 50, msg.Progress)
		assert.Equal(t, StepMessages[StepRendering], msg.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for progress message")
	}
}

func TestPublishProgress_DoneStep(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	publisher := NewPublisher(client)

	msg := &ProgressMessage{
		DocumentID:    1,
		JobID:         1,
		Status:        "completed",
		Step:          StepDone,
		PagesTotal:    4,
		PagesRendered: 4,
	}
	err := publisher.PublishProgress(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, 100, msg.Progress)
	assert.Equal(t, StepMessages[StepDone], msg.Message)
}
