package publisher

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_PublishToNATS(t *testing.T) {
	natsURL := skipWithoutNATS(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := New(ctx, natsURL)
	if err != nil {
		t.Fatalf("failed to create publisher: %v", err)
	}
	defer p.Close()

	nc, err := nats.Connect(natsURL)
	if err != nil {
		t.Fatalf("connect to NATS: %v", err)
	}
	defer nc.Close()

	sub, err := nc.SubscribeSync("interviews.call.stored")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if err := p.Publish("interviews.call.stored", []byte(`{"call_id":"int-1"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("expected message: %v", err)
	}
	if string(msg.Data) != `{"call_id":"int-1"}` {
		t.Errorf("unexpected payload %s", msg.Data)
	}
}
