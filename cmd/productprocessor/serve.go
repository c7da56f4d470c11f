package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hatsunemiku3939/versionrouter"
	"github.com/hatsunemiku3939/versionrouter/adapters/product"
	"github.com/hatsunemiku3939/versionrouter/internal/config"
	"github.com/hatsunemiku3939/versionrouter/internal/logging"
	failure "github.com/hatsunemiku3939/versionrouter/policy/failure"
	redisstore "github.com/hatsunemiku3939/versionrouter/store/redis"
	kafkatransport "github.com/hatsunemiku3939/versionrouter/transport/kafka"
	"github.com/hatsunemiku3939/versionrouter/transport/memory"
	sqstransport "github.com/hatsunemiku3939/versionrouter/transport/sqs"
)

const (
	shutdownTimeout = 15 * time.Second
	drainPoll       = 10 * time.Millisecond
	// sqsMaxMessages is the ReceiveMessage batch limit.
	sqsMaxMessages = 10
)

type ServeOptions struct {
	Transport     string
	Queue         string
	Workers       int
	FailurePolicy string
	Store         string
	DedupTTL      time.Duration
	MetricsAddr   string
	Input         string
}

func NewCmdServe() *cobra.Command {
	o := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "consume product messages and accumulate order items",
		Long: "serve subscribes to the configured queue and turns every product message into an order item. " +
			"Settings come from the environment; flags override them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if err := o.Complete(cmd, cfg); err != nil {
				return err
			}
			if err := o.Validate(cfg); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.Transport, "transport", "t", "", "memory, sqs or kafka, overrides TRANSPORT")
	flags.StringVarP(&o.Queue, "queue", "q", "", "queue name, queue URL or topic, overrides QUEUE_NAME")
	flags.IntVarP(&o.Workers, "workers", "w", 0, "concurrent message workers, overrides WORKERS")
	flags.StringVar(&o.FailurePolicy, "failure-policy", "", "drop or redrive, overrides FAILURE_POLICY")
	flags.StringVar(&o.Store, "store", "", "memory or redis, overrides STORE")
	flags.DurationVar(&o.DedupTTL, "dedup-ttl", 0, "remember accumulated message IDs this long (0 disables), overrides DEDUP_TTL")
	flags.StringVar(&o.MetricsAddr, "metrics-addr", "", "listen address for /metrics (empty disables), overrides METRICS_ADDR")
	flags.StringVarP(&o.Input, "input", "i", "", "memory transport only: feed the JSON documents in this file (- for stdin), print the order items and exit")
	return cmd
}

// Complete copies changed flags over cfg.
func (o *ServeOptions) Complete(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = o.Transport
	}
	if flags.Changed("queue") {
		cfg.QueueName = o.Queue
	}
	if flags.Changed("workers") {
		cfg.Workers = o.Workers
	}
	if flags.Changed("failure-policy") {
		cfg.FailurePolicy = o.FailurePolicy
	}
	if flags.Changed("store") {
		cfg.Store = o.Store
	}
	if flags.Changed("dedup-ttl") {
		cfg.DedupTTL = o.DedupTTL
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = o.MetricsAddr
	}
	return nil
}

func (o *ServeOptions) Validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if o.Input != "" && cfg.Transport != config.TransportMemory {
		return fmt.Errorf("--input requires the memory transport, got %q", cfg.Transport)
	}
	return nil
}

func (o *ServeOptions) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	proc, closeProc, err := newProcessor(cfg, store, reg, logger)
	if err != nil {
		return err
	}
	defer closeProc()

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	logger.Info("product processor starting",
		zap.String("transport", cfg.Transport),
		zap.String("queue", cfg.QueueName),
		zap.String("store", cfg.Store),
		zap.String("failure_policy", cfg.FailurePolicy),
		zap.Int("workers", cfg.Workers),
	)

	switch cfg.Transport {
	case config.TransportMemory:
		err = o.runMemory(ctx, cfg, proc, logger, out)
	case config.TransportSQS:
		err = runSQS(ctx, cfg, proc, logger)
	case config.TransportKafka:
		err = runKafka(ctx, cfg, proc, logger)
	}
	logger.Info("product processor stopped")
	return err
}

func newStore(ctx context.Context, cfg *config.Config) (versionrouter.Store, func(), error) {
	if cfg.Store != config.StoreRedis {
		return versionrouter.NewMemoryStore(), func() {}, nil
	}
	s, err := redisstore.New(ctx, redisstore.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
		Key:      cfg.RedisConfig.Key,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

// newProcessor wires the product registry, failure policy, metrics and the
// optional deduplicator. Metrics run outermost so duplicates are counted too.
func newProcessor(cfg *config.Config, store versionrouter.Store, reg prometheus.Registerer, logger *zap.Logger) (*versionrouter.Processor, func(), error) {
	registry, err := product.NewRegistry()
	if err != nil {
		return nil, nil, err
	}

	var policy failure.Policy = failure.DropPolicy{}
	if cfg.FailurePolicy == config.FailurePolicyRedrive {
		policy = failure.RedrivePolicy{}
	}

	proc := versionrouter.NewProcessor(registry, store,
		versionrouter.WithLogger(logger.With(zap.String("component", "Processor"))),
		versionrouter.WithFailurePolicy(policy),
	)
	if reg != nil {
		metrics, err := versionrouter.NewMetrics(reg)
		if err != nil {
			return nil, nil, err
		}
		proc.Use(metrics.Middleware())
	}

	cleanup := func() {}
	if cfg.DedupTTL > 0 {
		dedup := versionrouter.NewDeduplicator(cfg.DedupTTL, logger.With(zap.String("component", "Deduplicator")))
		proc.Use(dedup.Middleware())
		cleanup = dedup.Close
	}
	return proc, cleanup, nil
}

func startMetricsServer(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting metrics server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func (o *ServeOptions) runMemory(ctx context.Context, cfg *config.Config, proc *versionrouter.Processor, logger *zap.Logger, out io.Writer) error {
	broker := memory.NewBroker(memory.Config{Concurrency: cfg.Workers, MaxRedeliveries: 3}, logger.With(zap.String("component", "MemoryBroker")))
	defer broker.Close()

	sub, err := broker.Subscribe(ctx, cfg.QueueName, proc)
	if err != nil {
		return err
	}
	defer sub.Close()

	if o.Input == "" {
		<-ctx.Done()
		return nil
	}

	in, err := openInput(o.Input)
	if err != nil {
		return err
	}
	defer in.Close()
	docs, err := readDocuments(in)
	if err != nil {
		return err
	}
	if err := feedAndDrain(ctx, broker, cfg.QueueName, docs); err != nil {
		return err
	}
	_ = sub.Close()

	return printItems(ctx, proc.Store(), out)
}

// feedAndDrain sends docs to queue and waits until every one is acked or dropped.
func feedAndDrain(ctx context.Context, broker *memory.Broker, queue string, docs []string) error {
	for _, doc := range docs {
		if err := broker.SendTextMessage(ctx, queue, doc); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()
	for {
		st := broker.Stats()
		if st.Acked+st.Dropped >= st.Sent {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func printItems(ctx context.Context, store versionrouter.Store, out io.Writer) error {
	items, err := store.Items(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Fprintln(out, item.String())
	}
	return nil
}

func runSQS(ctx context.Context, cfg *config.Config, proc versionrouter.MessageProcessor, logger *zap.Logger) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}
	client := sqs.NewFromConfig(awsCfg)

	queueURL, err := sqstransport.NewSender(client).QueueURL(ctx, cfg.QueueName)
	if err != nil {
		return err
	}

	consumer := sqstransport.NewConsumer(client, queueURL, proc, sqstransport.ConsumerConfig{
		MaxMessages: int32(min(cfg.Workers, sqsMaxMessages)),
	}, logger.With(zap.String("component", "SQSConsumer")))
	consumer.Start(ctx)
	return nil
}

func runKafka(ctx context.Context, cfg *config.Config, proc versionrouter.MessageProcessor, logger *zap.Logger) error {
	kafkaLogger := logger.With(zap.String("component", "KafkaConsumer"))
	reader := kafkatransport.NewReader(cfg.GetKafkaBrokers(), cfg.KafkaConsumerGroup, cfg.QueueName, kafkaLogger)
	return kafkatransport.NewConsumer(reader, cfg.QueueName, proc, kafkaLogger).Start(ctx)
}
