package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/thumbgen/thumbnail-pipeline/config"
	kafkactrl "github.com/thumbgen/thumbnail-pipeline/internal/controller/kafka"
	"github.com/thumbgen/thumbnail-pipeline/internal/controller/restapi"
	"github.com/thumbgen/thumbnail-pipeline/internal/controller/worker/outbox"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/infrastructure/httpfetch"
	infrakafka "github.com/thumbgen/thumbnail-pipeline/internal/infrastructure/kafka"
	"github.com/thumbgen/thumbnail-pipeline/internal/infrastructure/processor"
	"github.com/thumbgen/thumbnail-pipeline/internal/infrastructure/webhook"
	"github.com/thumbgen/thumbnail-pipeline/internal/repo/persistent"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/aggregate"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/ingest"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/notify"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/query"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/record"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/resize"
	"github.com/thumbgen/thumbnail-pipeline/pkg/httpserver"
	"github.com/thumbgen/thumbnail-pipeline/pkg/kafka/consumer"
	"github.com/thumbgen/thumbnail-pipeline/pkg/kafka/producer"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
	"github.com/thumbgen/thumbnail-pipeline/pkg/postgres"
	"github.com/thumbgen/thumbnail-pipeline/pkg/s3client"
)

// component is anything with the controller lifecycle.
type component interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	objectRepo := persistent.NewObjectRepo(s3c, cfg.S3.Bucket, cfg.S3.PublicBaseURL)
	rowRepo := persistent.NewThumbnailRowRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	eventProducer := infrakafka.NewEventProducer(
		kafkaProducer,
		cfg.Kafka.UploadedTopic,
		cfg.Kafka.PartialsTopic,
		cfg.Kafka.GeneratedTopic,
	)

	// Use-Case

	ingestUseCase := ingest.New(objectRepo, outboxRepo, pg, l)
	queryUseCase := query.New(rowRepo)
	recordUseCase := record.New(rowRepo, pg, l)
	notifyUseCase := notify.New(webhook.New(cfg.Notifier.RequestTimeout), l)

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		ingestUseCase,
		eventProducer,
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.MarkFailedInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.BatchSize,
		cfg.OutboxRelay.MaxRetries,
	)

	fetcher := httpfetch.New()
	resizer := processor.New()

	// Resize workers, one consumer group per target dimension. Every
	// group sees every upload, which is the fan-out.
	resizeControllers := make([]*kafkactrl.ResizeController, 0, len(cfg.Resize.Dimensions))

	for _, dim := range cfg.Resize.Dimensions {
		spec := entity.Size{Width: dim.Width, Height: dim.Height}
		groupID := fmt.Sprintf("%s-%s", cfg.Resize.GroupPrefix, spec.Key())

		resizeConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, groupID, cfg.Kafka.UploadedTopic)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - consumer.New(%s): %w", groupID, err))
		}

		resizeUseCase := resize.New(fetcher, resizer, objectRepo, eventProducer, spec, l)

		resizeControllers = append(resizeControllers, kafkactrl.NewResizeController(
			resizeUseCase,
			infrakafka.NewEventConsumer(resizeConsumer),
			l,
			groupID,
			cfg.KafkaController.CommitTimeout,
			cfg.KafkaController.ProcessTimeout,
			runtime.NumCPU(),
		))
	}

	// Fan-in aggregator, single consumer group over the partials topic.
	partialsConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.FanIn.Group, cfg.Kafka.PartialsTopic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New(%s): %w", cfg.FanIn.Group, err))
	}

	aggregateUseCase := aggregate.New(eventProducer, len(cfg.Resize.Dimensions), l)

	fanInController := kafkactrl.NewFanInController(
		aggregateUseCase,
		infrakafka.NewEventConsumer(partialsConsumer),
		kafkactrl.NewCollector(len(cfg.Resize.Dimensions), cfg.FanIn.PendingTTL),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.FanIn.PendingTTL/2,
	)

	// Downstream fan-out: recorder and notifier in separate consumer
	// groups, each sees every generated set.
	recorderConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Recorder.Group, cfg.Kafka.GeneratedTopic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New(%s): %w", cfg.Recorder.Group, err))
	}

	recorderController := kafkactrl.NewDispatchController(
		recordUseCase.Record,
		infrakafka.NewEventConsumer(recorderConsumer),
		l,
		cfg.Recorder.Group,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		runtime.NumCPU(),
	)

	notifierConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Notifier.Group, cfg.Kafka.GeneratedTopic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New(%s): %w", cfg.Notifier.Group, err))
	}

	notifierController := kafkactrl.NewDispatchController(
		notifyUseCase.Notify,
		infrakafka.NewEventConsumer(notifierConsumer),
		l,
		cfg.Notifier.Group,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		runtime.NumCPU(),
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewRouter(httpServer.App, cfg, ingestUseCase, queryUseCase, l)

	// Start Components
	components := []component{outboxRelayWorker, fanInController, recorderController, notifierController}
	for _, rc := range resizeControllers {
		components = append(components, rc)
	}

	for _, c := range components {
		err = c.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - component Start: %w", err))
		}
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown. Ingress first, then the pipeline stages. The relay goes
	// last: its Shutdown closes the shared producer, which the resize
	// and fan-in stages still need while they drain.
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()

	for _, c := range components[1:] {
		err = c.Shutdown(kcShutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - Run - component Shutdown: %w", err))
		}
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
	}
}
