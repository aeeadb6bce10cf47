// Command corelendd runs one lending pool node: it loads the node's TOML
// configuration, opens its storage backend, assembles the pool/backstop/
// emitter engines, and serves the read-only rpc surface over them.
// Grounded on the teacher's cmd/nhb/main.go top-level wiring style: parse
// flags, load config, open storage, construct the engines, serve.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"corelend/config"
	"corelend/node"
	"corelend/observability/logging"
	telemetry "corelend/observability/otel"
	"corelend/storage"
)

func main() {
	configFile := flag.String("config", "./corelend.toml", "Path to the configuration file")
	dataBackend := flag.String("storage", "bolt", "Storage backend: mem, bolt, or level")
	logFile := flag.String("log-file", "", "Path to a log file; rotated via lumberjack. Empty logs to stdout")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("CORELEND_ENV"))
	logger := logging.Setup("corelendd", env, *logFile)

	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	otlpHeaders := telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "corelendd",
		Environment: env,
		Endpoint:    otlpEndpoint,
		Insecure:    insecure,
		Headers:     otlpHeaders,
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		logger.Error("failed to init telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	store, closeStore, err := openStore(*dataBackend, cfg.DataDir)
	if err != nil {
		logger.Error("failed to open storage backend", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	n, err := node.New(cfg, store, storage.SystemClock{})
	if err != nil {
		logger.Error("failed to assemble node", slog.Any("error", err))
		os.Exit(1)
	}

	handler := otelhttp.NewHandler(n.Server.Handler(), "corelendd")

	logger.Info("corelendd listening", slog.String("address", cfg.RPCAddress))
	if err := http.ListenAndServe(cfg.RPCAddress, handler); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// openStore opens the storage backend named by kind, returning a close func
// the caller must defer regardless of kind (mem's is a no-op).
func openStore(kind, dataDir string) (storage.KVStore, func(), error) {
	switch kind {
	case "mem":
		return storage.NewMemKV(), func() {}, nil
	case "level":
		db, err := storage.NewLevelKV(dataDir)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case "bolt":
		db, err := storage.NewBoltKV(dataDir)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("corelendd: unknown storage backend %q", kind)
	}
}
