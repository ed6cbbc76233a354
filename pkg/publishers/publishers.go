package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rniirs/news-harvester/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeHTTP  = "http"
	TypeFile  = "file"
	TypeQueue = "queue"
	TypeNoop  = "noop"

	// Supported queue providers.
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
	httpDefaultExpectStatus   = http.StatusCreated
	fileDefaultDir            = "./data"
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID      string                `json:"id" yaml:"id"`
	Type    string                `json:"type" yaml:"type"`
	Enabled *bool                 `json:"enabled" yaml:"enabled"`
	Modes   []string              `json:"modes" yaml:"modes"`
	Queue   *QueuePublisherConfig `json:"queue" yaml:"queue"`
	HTTP    *HTTPPublisherConfig  `json:"http" yaml:"http"`
	File    *FilePublisherConfig  `json:"file" yaml:"file"`
}

// QueuePublisherConfig selects a cloud queue provider.
type QueuePublisherConfig struct {
	Provider string                 `json:"provider" yaml:"provider"`
	AWS      *AWSSQSPublisherConfig `json:"aws" yaml:"aws"`
	SNS      *AWSSNSPublisherConfig `json:"sns" yaml:"sns"`
	GCP      *GCPQueueConfig        `json:"gcp" yaml:"gcp"`
}

// AWSSQSPublisherConfig holds AWS SQS settings. Static keys are optional;
// without them the default AWS credential chain applies.
type AWSSQSPublisherConfig struct {
	QueueURL        string `json:"uri" yaml:"uri"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// AWSSNSPublisherConfig holds AWS SNS settings.
type AWSSNSPublisherConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// GCPQueueConfig holds the minimal Pub/Sub topic settings.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig describes the downstream news API.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	ExpectStatus   int               `json:"expect_status" yaml:"expect_status"`
}

// FilePublisherConfig points the raw dump at a directory.
type FilePublisherConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// ConfigRegistry materializes publisher definitions loaded from config files.
type ConfigRegistry struct {
	mu         sync.RWMutex
	publishers []PublisherConfig
	idx        map[string]PublisherConfig
}

// LoadRegistry loads the publisher registry from a YAML/JSON file.
// ${VAR} references are expanded from the environment before decoding.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open publishers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(raw)))

	fileReg, err := parsePublisherRegistry(expanded, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewConfigRegistry(fileReg.Publishers)
}

// NewConfigRegistry validates and indexes publisher configs.
func NewConfigRegistry(list []PublisherConfig) (*ConfigRegistry, error) {
	if len(list) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, len(list)),
		idx:        make(map[string]PublisherConfig, len(list)),
	}

	for i := range list {
		cfg := sanitizePublisherConfig(list[i])
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.publishers[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parsePublisherRegistry attempts to decode the publishers file content.
func parsePublisherRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return configFile{}, errors.New("publishers file format not recognized (expected YAML or JSON)")
}

// sanitizePublisherConfig trims values and applies per-type defaults.
func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	cfg.Modes = normalizeModes(cfg.Modes)

	if cfg.Queue != nil {
		qc := *cfg.Queue
		qc.normalize()
		cfg.Queue = &qc
	}
	if cfg.HTTP != nil {
		hc := *cfg.HTTP
		hc.normalize()
		cfg.HTTP = &hc
	}
	if cfg.Type == TypeFile {
		var fc FilePublisherConfig
		if cfg.File != nil {
			fc = *cfg.File
		}
		if fc.Dir = strings.TrimSpace(fc.Dir); fc.Dir == "" {
			fc.Dir = fileDefaultDir
		}
		cfg.File = &fc
	}
	return cfg
}

// normalizeModes lower-cases modes and drops blanks and repeats.
func normalizeModes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

func (q *QueuePublisherConfig) normalize() {
	q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
	if q.AWS != nil {
		c := *q.AWS
		trimAll(&c.QueueURL, &c.Region, &c.AccessKeyID, &c.SecretAccessKey)
		q.AWS = &c
	}
	if q.SNS != nil {
		c := *q.SNS
		trimAll(&c.TopicARN, &c.Region, &c.AccessKeyID, &c.SecretAccessKey)
		q.SNS = &c
	}
	if q.GCP != nil {
		c := *q.GCP
		trimAll(&c.ProjectID, &c.Topic, &c.CredentialsFile)
		q.GCP = &c
	}
}

func (h *HTTPPublisherConfig) normalize() {
	h.URL = strings.TrimSpace(h.URL)
	h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
	if h.Method == "" {
		h.Method = httpDefaultMethod
	}
	h.Headers = sanitizeHeaders(h.Headers)
	if h.TimeoutSeconds <= 0 {
		h.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	if h.ExpectStatus == 0 {
		h.ExpectStatus = httpDefaultExpectStatus
	}
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// sanitizeHeaders drops headers with an empty name or value.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validatePublisherConfig checks that required fields are present.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	}
	for _, m := range cfg.Modes {
		if m != string(domain.ModeBackfill) && m != string(domain.ModeIncremental) {
			return fmt.Errorf("mode %q not supported for publisher %q", m, cfg.ID)
		}
	}

	var err error
	switch cfg.Type {
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue config required for publisher %q", cfg.ID)
		}
		err = cfg.Queue.validate()
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http config required for publisher %q", cfg.ID)
		}
		err = cfg.HTTP.validate()
	case TypeFile, TypeNoop:
	default:
		return fmt.Errorf("type %q not supported for publisher %q", cfg.Type, cfg.ID)
	}
	if err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func (h *HTTPPublisherConfig) validate() error {
	if h.URL == "" {
		return errors.New("http.url is required")
	}
	if h.ExpectStatus < 100 || h.ExpectStatus > 599 {
		return fmt.Errorf("http.expect_status %d is invalid", h.ExpectStatus)
	}
	return nil
}

func (q *QueuePublisherConfig) validate() error {
	switch q.Provider {
	case QueueProviderAWSSQS:
		if q.AWS == nil {
			return errors.New("queue.aws config required")
		}
		return requireAWS("queue.aws", map[string]string{"uri": q.AWS.QueueURL, "region": q.AWS.Region}, q.AWS.AccessKeyID, q.AWS.SecretAccessKey)
	case QueueProviderAWSSNS:
		if q.SNS == nil {
			return errors.New("queue.sns config required")
		}
		return requireAWS("queue.sns", map[string]string{"topic_arn": q.SNS.TopicARN, "region": q.SNS.Region}, q.SNS.AccessKeyID, q.SNS.SecretAccessKey)
	case QueueProviderGCP:
		if q.GCP == nil {
			return errors.New("queue.gcp config required")
		}
		if q.GCP.ProjectID == "" {
			return errors.New("queue.gcp.project_id is required")
		}
		if q.GCP.Topic == "" {
			return errors.New("queue.gcp.topic is required")
		}
		return nil
	default:
		return fmt.Errorf("queue provider %q not supported", q.Provider)
	}
}

// requireAWS checks required fields in a stable order and rejects
// half-configured static credentials.
func requireAWS(prefix string, required map[string]string, keyID, secret string) error {
	keys := make([]string, 0, len(required))
	for k := range required {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if required[k] == "" {
			return fmt.Errorf("%s.%s is required", prefix, k)
		}
	}
	if (keyID == "") != (secret == "") {
		return fmt.Errorf("%s.access_key_id and %s.secret_access_key must be set together", prefix, prefix)
	}
	return nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return PublisherConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured publishers.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PublisherConfig, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]PublisherConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}

// AppliesTo reports whether the publisher takes part in runs of the given
// mode. No modes means every mode.
func (cfg PublisherConfig) AppliesTo(mode domain.Mode) bool {
	return len(cfg.Modes) == 0 || slices.Contains(cfg.Modes, string(mode))
}
