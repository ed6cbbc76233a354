package publishers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rniirs/news-harvester/internal/domain"
)

func TestLoadRegistryEnabledFilterAndEnv(t *testing.T) {
	t.Setenv("NEWS_API_URL", "https://api.example.com/news")
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	raw := `
publishers:
  - id: api
    type: http
    modes: [Incremental]
    http:
      url: ${NEWS_API_URL}
  - id: queue
    type: queue
    enabled: false
    queue:
      provider: AWS-SQS
      aws:
        uri: https://sqs.example/queue
        region: eu-central-1
  - id: dump
    type: file
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "api" || enabled[1].ID != "dump" {
		t.Fatalf("unexpected enabled publishers %#v", enabled)
	}

	api, _ := reg.ByID("api")
	if api.HTTP.URL != "https://api.example.com/news" {
		t.Fatalf("expected env expansion, got %q", api.HTTP.URL)
	}
	if api.HTTP.ExpectStatus != 201 || api.HTTP.Method != "POST" {
		t.Fatalf("unexpected http defaults %#v", api.HTTP)
	}
	if api.AppliesTo(domain.ModeBackfill) || !api.AppliesTo(domain.ModeIncremental) {
		t.Fatalf("unexpected mode filter %v", api.Modes)
	}

	dump, _ := reg.ByID("dump")
	if dump.File == nil || dump.File.Dir != fileDefaultDir {
		t.Fatalf("expected default dump dir, got %#v", dump.File)
	}
	if !dump.AppliesTo(domain.ModeBackfill) {
		t.Fatalf("publisher without modes should serve every mode")
	}

	q, _ := reg.ByID("queue")
	if q.Queue.Provider != QueueProviderAWSSQS {
		t.Fatalf("expected provider to be normalized, got %q", q.Queue.Provider)
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  PublisherConfig
	}{
		{name: "missing http block", cfg: PublisherConfig{ID: "h1", Type: TypeHTTP}},
		{name: "unknown mode", cfg: PublisherConfig{ID: "n", Type: TypeNoop, Modes: []string{"daily"}}},
		{name: "unknown type", cfg: PublisherConfig{ID: "k", Type: "kafka"}},
		{name: "half static keys", cfg: PublisherConfig{ID: "q", Type: TypeQueue, Queue: &QueuePublisherConfig{
			Provider: QueueProviderAWSSNS,
			SNS:      &AWSSNSPublisherConfig{TopicARN: "arn", Region: "eu", AccessKeyID: "AK"},
		}}},
		{name: "gcp without topic", cfg: PublisherConfig{ID: "g", Type: TypeQueue, Queue: &QueuePublisherConfig{
			Provider: QueueProviderGCP,
			GCP:      &GCPQueueConfig{ProjectID: "p"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validatePublisherConfig(sanitizePublisherConfig(tt.cfg)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateQueueConfigNamesMissingField(t *testing.T) {
	cfg := sanitizePublisherConfig(PublisherConfig{ID: "q", Type: TypeQueue, Queue: &QueuePublisherConfig{
		Provider: " AWS-SQS ",
		AWS:      &AWSSQSPublisherConfig{QueueURL: " https://sqs.example/queue "},
	}})
	err := validatePublisherConfig(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if want := `publisher "q": queue.aws.region is required`; err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}

	cfg.Queue.AWS.Region = "eu-central-1"
	if err := validatePublisherConfig(cfg); err != nil {
		t.Fatalf("static keys are optional: %v", err)
	}
}
