package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"linear-mcp-server/internal/application"
	"linear-mcp-server/internal/domain"
	"linear-mcp-server/internal/infrastructure"
	"linear-mcp-server/internal/telemetry"
)

// Set by the release build.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run wires the server and blocks until ctx ends or the transport runs out of
// input. It returns the process exit code. Only protocol frames go to stdout.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("linear-mcp-server", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to an optional YAML configuration file")
	transportType := flags.String("transport", "", "Transport to serve on: stdio or http (overrides config)")
	strategy := flags.String("strategy", "", "Ticket retrieval strategy: sdk or graphql (overrides config)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	config, err := loadConfig(*configPath, *transportType, *strategy)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := application.NewSlogLogger(stderr, config.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return 1
	}
	slog.SetDefault(logger)
	log := application.NewStructuredLogger(logger)

	shutdownTracing, err := telemetry.Setup(ctx, config.Telemetry)
	if err != nil {
		log.LogError("failed to set up tracing", err, nil)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.LogError("failed to flush traces", err, nil)
		}
	}()

	creds := domain.CredentialsFromConfig(config)
	if creds == nil {
		log.LogInfo("no Linear credential configured; ticket searches will report it", map[string]any{
			"variable": domain.CredentialEnvVar,
		})
	}

	retriever, err := infrastructure.NewTicketRetriever(config.Linear.Strategy, infrastructure.ClientOptions{
		Endpoint:    config.Linear.Endpoint,
		Credentials: creds,
		Timeout:     config.Linear.RequestTimeout,
		Concurrency: config.Linear.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		log.LogError("failed to create ticket retriever", err, nil)
		return 1
	}

	mapper := domain.NewResponseMapper()
	registry := application.NewCapabilityRegistry()
	if err := application.RegisterCapabilities(registry, application.CapabilityDeps{
		Retriever: retriever,
		Mapper:    mapper,
		Logger:    log,
	}); err != nil {
		log.LogError("failed to register capabilities", err, nil)
		return 1
	}

	var transport domain.Transport
	switch config.Transport.Type {
	case domain.TransportHTTP:
		transport = domain.NewHTTPTransport(config.Transport.HTTP.Host, config.Transport.HTTP.Port)
	default:
		transport = domain.NewStdioTransportWithIO(stdin, stdout)
	}

	server := application.NewServer(
		transport,
		application.NewDispatcher(registry, log),
		mapper,
		application.ServerInfo{Name: "linear-mcp-server", Version: version},
		log,
	)

	if err := server.Start(ctx); err != nil {
		return 1
	}

	log.LogInfo("MCP server started", map[string]any{
		"transport": config.Transport.Type,
		"strategy":  config.Linear.Strategy,
	})

	select {
	case <-ctx.Done():
		log.LogInfo("received shutdown signal", nil)
	case <-server.Done():
	}

	if err := server.Close(); err != nil {
		log.LogError("error during server shutdown", err, nil)
	}

	log.LogInfo("server shutdown complete", nil)
	return 0
}

// loadConfig layers the command-line overrides on top of the file and environment.
func loadConfig(path, transportType, strategy string) (*domain.Config, error) {
	config, err := domain.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if transportType == "" && strategy == "" {
		return config, nil
	}

	if transportType != "" {
		config.Transport.Type = transportType
	}
	if strategy != "" {
		config.Linear.Strategy = strategy
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}
