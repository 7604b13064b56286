package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		S3              S3
		Kafka           Kafka
		Resize          Resize
		FanIn           FanIn
		Recorder        Recorder
		Notifier        Notifier
		OutboxRelay     OutboxRelay
		KafkaController KafkaController
		Swagger         Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT,required"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		PublicBaseURL  string        `env:"S3_PUBLIC_BASE_URL"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Brokers        []string `env:"KAFKA_BROKERS,required"`
		UploadedTopic  string   `env:"KAFKA_UPLOADED_TOPIC,required"`
		PartialsTopic  string   `env:"KAFKA_PARTIALS_TOPIC,required"`
		GeneratedTopic string   `env:"KAFKA_GENERATED_TOPIC,required"`
	}

	// Resize.Dimensions is the statically configured ResizeSpec set.
	// Its length is the fan-in cardinality N; the aggregator receives
	// that value from here, never inferred from the message stream.
	Resize struct {
		Dimensions  Dimensions `env:"RESIZE_DIMENSIONS" envDefault:"400x300,160x120,120x120"`
		GroupPrefix string     `env:"RESIZE_GROUP_PREFIX" envDefault:"resize-worker"`
	}

	FanIn struct {
		Group      string        `env:"FANIN_GROUP" envDefault:"aggregator"`
		PendingTTL time.Duration `env:"FANIN_PENDING_TTL" envDefault:"15m"`
	}

	Recorder struct {
		Group string `env:"RECORDER_GROUP" envDefault:"metadata-recorder"`
	}

	Notifier struct {
		Group          string        `env:"NOTIFIER_GROUP" envDefault:"notifier"`
		RequestTimeout time.Duration `env:"NOTIFIER_REQUEST_TIMEOUT" envDefault:"10s"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"3"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"15s"` // fetch + resize + store + publish
		CPUTimeout      time.Duration `env:"KAFKA_CONTROLLER_CPU_TIMEOUT" envDefault:"8s"`      // resize transform only
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

type Dimension struct {
	Width  int
	Height int
}

type Dimensions []Dimension

// UnmarshalText parses "400x300,160x120,120x120".
func (d *Dimensions) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), ",")

	dims := make(Dimensions, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)

		w, h, ok := strings.Cut(part, "x")
		if !ok {
			return fmt.Errorf("config - Dimensions - UnmarshalText: %q is not WxH", part)
		}

		width, err := strconv.Atoi(w)
		if err != nil {
			return fmt.Errorf("config - Dimensions - UnmarshalText: %q width: %w", part, err)
		}

		height, err := strconv.Atoi(h)
		if err != nil {
			return fmt.Errorf("config - Dimensions - UnmarshalText: %q height: %w", part, err)
		}

		if width <= 0 || height <= 0 {
			return fmt.Errorf("config - Dimensions - UnmarshalText: %q must be positive", part)
		}

		if _, ok := seen[part]; ok {
			return fmt.Errorf("config - Dimensions - UnmarshalText: duplicate dimension %q", part)
		}
		seen[part] = struct{}{}

		dims = append(dims, Dimension{Width: width, Height: height})
	}

	if len(dims) == 0 {
		return fmt.Errorf("config - Dimensions - UnmarshalText: at least one dimension required")
	}

	*d = dims

	return nil
}

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
