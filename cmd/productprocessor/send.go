package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"

	"github.com/hatsunemiku3939/versionrouter"
	"github.com/hatsunemiku3939/versionrouter/internal/config"
	"github.com/hatsunemiku3939/versionrouter/internal/logging"
	kafkatransport "github.com/hatsunemiku3939/versionrouter/transport/kafka"
	sqstransport "github.com/hatsunemiku3939/versionrouter/transport/sqs"
)

type SendOptions struct {
	Transport string
	Queue     string
	Filename  string
}

func NewCmdSend() *cobra.Command {
	o := &SendOptions{Filename: "-"}

	cmd := &cobra.Command{
		Use:   "send [--queue QUEUE] [--file FILENAME]",
		Short: "send product messages to a queue",
		Long: "send every JSON document in FILENAME (or stdin) as one message to QUEUE " +
			"through the sqs or kafka transport.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			o.Complete(cmd, cfg)
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&o.Transport, "transport", "t", "", "transport to send through (sqs or kafka), overrides TRANSPORT")
	cmd.Flags().StringVarP(&o.Queue, "queue", "q", "", "queue name, queue URL or topic, overrides QUEUE_NAME")
	cmd.Flags().StringVarP(&o.Filename, "file", "f", o.Filename, "file with one or more JSON documents, - for stdin")
	return cmd
}

func (o *SendOptions) Complete(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Lookup("transport").Changed {
		o.Transport = cfg.Transport
	}
	if !cmd.Flags().Lookup("queue").Changed {
		o.Queue = cfg.QueueName
	}
}

func (o *SendOptions) Validate() error {
	switch o.Transport {
	case config.TransportSQS, config.TransportKafka:
	case config.TransportMemory:
		return errors.New("the memory transport is in-process only, use serve --input instead")
	default:
		return fmt.Errorf("unknown transport %q", o.Transport)
	}
	if o.Queue == "" {
		return errors.New("queue must not be empty")
	}
	return nil
}

func (o *SendOptions) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	in, err := openInput(o.Filename)
	if err != nil {
		return err
	}
	defer in.Close()
	docs, err := readDocuments(in)
	if err != nil {
		return err
	}

	var sender versionrouter.Sender
	switch o.Transport {
	case config.TransportSQS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		sender = sqstransport.NewSender(sqs.NewFromConfig(awsCfg))
	case config.TransportKafka:
		s := kafkatransport.NewSender(kafkatransport.NewWriter(cfg.GetKafkaBrokers(), logger), logger)
		defer s.Close()
		sender = s
	}

	return sendAll(ctx, sender, o.Queue, docs, out)
}

func sendAll(ctx context.Context, sender versionrouter.Sender, queue string, docs []string, out io.Writer) error {
	for i, doc := range docs {
		if err := sender.SendTextMessage(ctx, queue, doc); err != nil {
			return fmt.Errorf("sending document %d: %w", i+1, err)
		}
	}
	fmt.Fprintf(out, "sent %d message(s) to %s\n", len(docs), queue)
	return nil
}
