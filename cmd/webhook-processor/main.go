package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"hradmin/internal/awsutil"
	"hradmin/internal/config"
	"hradmin/internal/dedup"
	"hradmin/internal/httpserver"
	"hradmin/internal/logging"
	"hradmin/internal/observability"
	sqsqueue "hradmin/internal/queue/sqs"
	"hradmin/internal/store"
	"hradmin/internal/store/pg"
	"hradmin/internal/util"
)

func main() {
	cfg := config.LoadProcessor()
	logging.Init("webhook-processor", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())

	db, err := pg.NewPool(ctx, cfg.DBDSN, pg.PoolOptions{})
	if err != nil {
		slog.Error("webhook-processor db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	dbStore := pg.New(db)

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWSRegion, cfg.LocalstackEndpoint)
	if err != nil {
		slog.Error("webhook-processor sqs client init failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	filter := dedup.NewFilter(rdb)

	observability.Register(prometheus.DefaultRegisterer)

	consumer := &sqsqueue.Consumer{
		SQS:               sqsClient,
		QueueURL:          cfg.DeliveryEventsQueueURL,
		WaitTimeSeconds:   cfg.SQSWaitTime,
		MaxMessages:       cfg.SQSMaxMsgs,
		VisibilityTimeout: cfg.SQSVizTimeout,
	}

	healthMux := httpserver.New().Mux
	healthMux.HandleFunc("/healthz", httpserver.Healthz())
	healthMux.HandleFunc("/readyz", httpserver.Readyz(2*time.Second,
		func(c context.Context) error { return db.Ping(c) },
		func(c context.Context) error { return rdb.Ping(c).Err() },
		func(c context.Context) error {
			_, err := sqsClient.GetQueueAttributes(c, &sqs.GetQueueAttributesInput{
				QueueUrl:       &cfg.DeliveryEventsQueueURL,
				AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
			})
			return err
		},
	))

	healthSrv := &http.Server{Addr: ":" + cfg.Port, Handler: httpserver.Logging(healthMux)}
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: promhttp.Handler()}

	healthErrCh := make(chan error, 1)
	go func() {
		slog.Info("webhook-processor health listening", "port", cfg.Port)
		healthErrCh <- healthSrv.ListenAndServe()
	}()
	metricsErrCh := make(chan error, 1)
	go func() {
		slog.Info("webhook-processor metrics listening", "port", cfg.MetricsPort)
		metricsErrCh <- metricsSrv.ListenAndServe()
	}()

	pollErrCh := make(chan error, 1)
	go func() {
		slog.Info("webhook-processor starting poll", "queue_url", cfg.DeliveryEventsQueueURL)
		pollErrCh <- consumer.PollConcurrent(ctx, cfg.ProcessorConcurrency, func(ctx context.Context, ev sqsqueue.DeliveryCallback) error {
			return processDeliveryCallback(ctx, dbStore, filter, ev)
		})
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-pollErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("webhook-processor poll failed", "err", err)
			os.Exit(1)
		}
	case err := <-healthErrCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("webhook-processor health server failed", "err", err)
			os.Exit(1)
		}
	case err := <-metricsErrCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("webhook-processor metrics server failed", "err", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		slog.Info("webhook-processor shutdown", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	select {
	case <-pollErrCh:
	case <-time.After(10 * time.Second):
		slog.Info("webhook-processor shutdown timeout waiting for poll loop")
	}
}

func processDeliveryCallback(ctx context.Context, st *pg.Store, filter *dedup.Filter, ev sqsqueue.DeliveryCallback) error {
	// The agent replays events when its scan windows overlap; duplicates
	// are dropped before touching the database.
	fresh, err := filter.IsNew(ctx, ev.EventID)
	if err != nil {
		return err
	}
	if !fresh {
		observability.DedupHits.Inc()
		return nil
	}

	// Bound DB work; an error here leaves the message for SQS redrive.
	dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status := ""
	switch ev.Status {
	case "delivered":
		status = "Delivered"
	case "failed", "bounced":
		status = "Failed"
	}
	if status != "" {
		if _, err := st.UpdateRecipientStatus(dbCtx, ev.CampaignID, ev.Email, status); err != nil {
			return err
		}
	}

	occurredAt := ev.ReceivedAt
	return st.InsertDeliveryEvent(dbCtx, store.DeliveryEvent{
		CampaignID: ev.CampaignID,
		Email:      util.NormalizeEmail(ev.Email),
		Status:     ev.Status,
		Reason:     ev.Reason,
		Payload:    ev.Payload,
		OccurredAt: &occurredAt,
	})
}
