package publishers

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestGCPPubSubSenderPublishes(t *testing.T) {
	// in-memory Pub/Sub emulator
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "news"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newQueuePublisher(ctx, PublisherConfig{
		ID:   "gcp",
		Type: TypeQueue,
		Queue: &QueuePublisherConfig{
			Provider: QueueProviderGCP,
			GCP:      &GCPQueueConfig{ProjectID: "test-project", Topic: "news"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newQueuePublisher: %v", err)
	}

	if err := pub.Publish(ctx, sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["source_id"] != "rscf" {
		t.Fatalf("unexpected attributes %#v", msgs[0].Attributes)
	}

	if err := pub.(*queuePublisher).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
