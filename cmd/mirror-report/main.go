// Command mirror-report tails a mirroring client's NATS JetStream
// Write-Error Sink and prints each lost secondary write as it arrives.
//
// A MemorySink's reports never leave the owning process, so this tool only
// applies to a Table configured with errorsink.NewNATSSink.
//
// # Running
//
//	go run ./cmd/mirror-report -nats-url nats://127.0.0.1:4222
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/prash-mi/hbase-mirror/errorsink"
)

func main() {
	natsURL := flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	stream := flag.String("stream", "mirror-errors", "JetStream stream name")
	subject := flag.String("subject", "mirror.errors", "subject to tail")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		log.Fatalf("failed to create jetstream context: %v", err)
	}

	consumer, err := js.OrderedConsumer(ctx, *stream, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{*subject},
	})
	if err != nil {
		log.Fatalf("failed to create consumer on stream %q: %v", *stream, err)
	}

	iter, err := consumer.Messages()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	defer iter.Stop()

	fmt.Printf("tailing %s/%s...\n", *stream, *subject)

	for {
		msg, err := iter.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("consume error: %v", err)
			continue
		}

		report, err := errorsink.DecodeReport(msg.Data())
		if err != nil {
			log.Printf("skipping malformed report: %v", err)
			_ = msg.Ack()
			continue
		}
		_ = msg.Ack()

		printReport(report)
	}
}

func printReport(r errorsink.Report) {
	when := time.Unix(0, r.Timestamp).Format(time.RFC3339)
	backend := color.New(color.FgYellow).SprintFunc()
	kind := color.New(color.FgCyan).SprintFunc()
	cause := color.New(color.FgRed).SprintFunc()

	fmt.Printf("[%s] %s backend=%s kind=%s row=%q cause=%s\n",
		when, r.ID, backend(r.Backend), kind(r.Kind), string(r.RowKey), cause(r.Cause))
}
