package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/horockey/nskv/internal/controller/http_controller"
	"github.com/horockey/nskv/internal/store_factory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the configured store over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("listen", "0.0.0.0:7000", "listen address")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) (resErr error) {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := s.logger()
	if err != nil {
		return err
	}

	params, err := s.storeParams()
	if err != nil {
		return err
	}
	if params.Kind == store_factory.KindRedis {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := store_factory.Open(ctx, params, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			resErr = errors.Join(resErr, fmt.Errorf("closing store: %w", err))
		}
	}()

	reg := prometheus.NewRegistry()
	ctrl := http_controller.New(
		s.Listen,
		s.APIKey,
		store,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		logger.With().Str("subscope", "http_controller").Logger(),
	)

	for _, c := range append(store.Metrics(), ctrl.Metrics()...) {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
	}

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("running http controller: %w", err)
	}
	return nil
}
