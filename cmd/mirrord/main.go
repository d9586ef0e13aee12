// Command mirrord runs a mirroring Table behind an admin HTTP surface
// exposing liveness and Prometheus-format metrics.
//
// The primary and secondary backends here are in-memory stand-ins; a real
// deployment replaces them with whatever client talks to the actual
// wide-column stores being mirrored.
//
// # Running
//
//	go run ./cmd/mirrord
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	mirror "github.com/prash-mi/hbase-mirror"
	"github.com/prash-mi/hbase-mirror/contrib/metrics/vm"
	"github.com/prash-mi/hbase-mirror/errorsink"
	"github.com/prash-mi/hbase-mirror/flowcontrol"
	"github.com/prash-mi/hbase-mirror/internal/adminhttp"
	"github.com/prash-mi/hbase-mirror/internal/logging"
	"github.com/prash-mi/hbase-mirror/sampler"
	"github.com/prash-mi/hbase-mirror/test/testutil"
)

func main() {
	logger := logging.NewDefaultLogger()

	collector := vm.New(vm.WithPrefix("mirrord"))
	sink := errorsink.NewMemorySink(errorsink.WithMemorySinkMetrics(collector))
	defer sink.Close()

	table, err := mirror.NewTable(
		testutil.NewFakeBackend(),
		testutil.NewFakeBackend(),
		mirror.WithMetrics(collector),
		mirror.WithFlowController(flowcontrol.NewBoundedController(
			flowcontrol.WithMaxOutstandingRequests(envInt("MIRRORD_MAX_OUTSTANDING", 500)),
			flowcontrol.WithMetrics(collector),
		)),
		mirror.WithReadSampler(sampler.NewRatioSampler(envFloat("MIRRORD_READ_SAMPLE_RATIO", 0.01))),
		mirror.WithWriteErrorSink(sink),
		mirror.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("failed to build mirroring table: %v", err)
	}
	defer table.Close()

	worker := errorsink.NewWorker(sink, func(r errorsink.Report) {
		logger.Warn("secondary write lost", "backend", r.Backend.String(), "kind", r.Kind.String(), "cause", r.Cause)
	}, errorsink.WithWorkerLogger(logger))
	worker.Start()
	defer worker.Stop()

	addr := envOrDefault("MIRRORD_HTTP_ADDR", "127.0.0.1:8090")
	srv := &http.Server{
		Addr: addr,
		Handler: adminhttp.NewServer(table,
			adminhttp.WithMetricsHandler(collector),
			adminhttp.WithSinkInspector(sink),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting admin server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("admin server failed: %v", err)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	for _, c := range v {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var whole, frac float64
	var fracDiv float64 = 1
	seenDot := false
	for _, c := range v {
		switch {
		case c == '.' && !seenDot:
			seenDot = true
		case c >= '0' && c <= '9':
			if seenDot {
				fracDiv *= 10
				frac = frac*10 + float64(c-'0')
			} else {
				whole = whole*10 + float64(c-'0')
			}
		default:
			return def
		}
	}
	return whole + frac/fracDiv
}
