package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("oscarnight exited")
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "oscarnight [port]",
		Short: "Live Oscar night voting session server",
		Long: `Serves a live Oscar night session: voters, the admin page and the TV
display connect over a websocket at /ws and share users, categories and
the buzzer queue in real time.

The port can be given as the only argument (default 3000).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if err := resolvePort(config, port, args); err != nil {
				return err
			}
			setupLogLevel(config.LogLevel)
			return run(cmd.Context(), config)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the yaml config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on")

	return cmd
}

func setupLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		log.Warn().Str("log_level", level).Msg("unknown log level, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func run(parent context.Context, config *Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	b, err := setupBackends(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}
	defer b.close()

	urls := networkURLs(config.Port)
	services, err := setupServices(ctx, config, b, urls)
	if err != nil {
		return fmt.Errorf("failed to set up services: %w", err)
	}

	server := setupServer(config, services, b)

	// The writer outlives ctx so Stop can flush the last documents
	if err := services.Writer.Start(context.Background()); err != nil {
		return err
	}

	if services.Mirror != nil {
		go services.Mirror.Run(ctx)
	}

	gatewayDone := make(chan struct{})
	go func() {
		defer close(gatewayDone)
		if err := services.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	printBanner(config.Port, urls)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case runErr = <-serverErr:
		log.Error().Err(runErr).Msg("HTTP server failed")
	case <-parent.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Stop the engine, close sockets and stop pending countdowns
	cancel()
	<-gatewayDone
	if services.Mirror != nil {
		<-services.Mirror.Done()
	}

	if err := services.Writer.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop persistence writer")
	}

	log.Info().Msg("oscarnight shutdown complete")
	return runErr
}
