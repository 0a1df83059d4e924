package http_controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/horockey/go-toolbox/http_helpers"
	"github.com/horockey/nskv/internal/controller/http_controller/dto"
	"github.com/horockey/nskv/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const apiKeyHeader = "X-Api-Key"

// HttpController exposes a store over HTTP.
type HttpController struct {
	serv    *http.Server
	apiKey  string
	store   model.Store
	logger  zerolog.Logger
	metrics *metrics
}

// Creates controller listening on addr.
// If metricsHandler is not nil, it is served on /metrics without auth.
func New(
	addr string,
	apiKey string,
	store model.Store,
	metricsHandler http.Handler,
	logger zerolog.Logger,
) *HttpController {
	ctrl := HttpController{
		serv: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second, //nolint: mnd
		},
		apiKey:  apiKey,
		store:   store,
		logger:  logger,
		metrics: newMetrics(),
	}

	router := mux.NewRouter().SkipClean(true)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})

	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	api := router.NewRoute().Subrouter()
	api.HandleFunc("/kv/{key:.*}", ctrl.getKVKeyHandler).Methods(http.MethodGet)
	api.HandleFunc("/kv/{key:.*}", ctrl.putKVKeyHandler).Methods(http.MethodPut)
	api.HandleFunc("/kv/{key:.*}", ctrl.deleteKVKeyHandler).Methods(http.MethodDelete)
	api.HandleFunc("/exists/{key:.*}", ctrl.getExistsKeyHandler).Methods(http.MethodGet)
	api.HandleFunc("/keys", ctrl.getKeysHandler).Methods(http.MethodGet)
	api.Use(ctrl.metricsMW, ctrl.authMW)

	ctrl.serv.Handler = router

	return &ctrl
}

func (ctrl *HttpController) Metrics() []prometheus.Collector {
	return ctrl.metrics.list()
}

// Handler returns the router, mostly for tests.
func (ctrl *HttpController) Handler() http.Handler {
	return ctrl.serv.Handler
}

// Serves until ctx is done, then shuts the server down.
func (ctrl *HttpController) Start(ctx context.Context) (resErr error) {
	var wg sync.WaitGroup
	defer wg.Wait()

	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.logger.Info().Str("addr", ctrl.serv.Addr).Msg("http controller started")
		if err := ctrl.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
			resErr = errors.Join(resErr, fmt.Errorf("running context: %w", ctx.Err()))
		}

		sdCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := ctrl.serv.Shutdown(sdCtx); err != nil {
			resErr = errors.Join(resErr, fmt.Errorf("shutting down server: %w", err))
		}
		return resErr

	case err := <-errCh:
		return fmt.Errorf("running server: %w", err)
	}
}

func (ctrl *HttpController) authMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get(apiKeyHeader) != ctrl.apiKey {
			ctrl.metrics.unauthorizedCnt.Inc()
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (ctrl *HttpController) metricsMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func(ts time.Time) {
			ctrl.metrics.handleTimeHist.Observe(float64(time.Since(ts)))
		}(time.Now())

		route := "unknown"
		if tpl, err := mux.CurrentRoute(req).GetPathTemplate(); err == nil {
			route = tpl
		}
		ctrl.metrics.requestsCnt.WithLabelValues(route).Inc()

		next.ServeHTTP(w, req)
	})
}

func (ctrl *HttpController) getKVKeyHandler(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	val, err := ctrl.store.Get(req.Context(), key)
	if err != nil {
		ctrl.respondStoreErr(w, fmt.Errorf("getting value from store: %w", err))
		return
	}

	ctrl.respondOK(w, dto.KV{Key: []byte(key), Value: []byte(val)})
}

func (ctrl *HttpController) putKVKeyHandler(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	dtoKV := dto.KV{}
	if err := json.NewDecoder(req.Body).Decode(&dtoKV); err != nil {
		err = fmt.Errorf("decoding body dto: %w", err)
		ctrl.logger.Error().Err(err).Send()
		ctrl.metrics.errProcessCnt.Inc()
		_ = http_helpers.RespondWithErr(w, http.StatusBadRequest, err)
		return
	}

	ack, err := ctrl.store.Set(req.Context(), key, string(dtoKV.Value))
	if err != nil {
		ctrl.respondStoreErr(w, fmt.Errorf("setting value to store: %w", err))
		return
	}

	ctrl.respondOK(w, dto.Ack{Ack: ack})
}

func (ctrl *HttpController) deleteKVKeyHandler(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	n, err := ctrl.store.Del(req.Context(), key)
	if err != nil {
		ctrl.respondStoreErr(w, fmt.Errorf("deleting key from store: %w", err))
		return
	}

	ctrl.respondOK(w, dto.Deleted{Deleted: n})
}

func (ctrl *HttpController) getExistsKeyHandler(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]

	exists, err := ctrl.store.Exists(req.Context(), key)
	if err != nil {
		ctrl.respondStoreErr(w, fmt.Errorf("checking key in store: %w", err))
		return
	}

	ctrl.respondOK(w, dto.Exists{Exists: exists})
}

func (ctrl *HttpController) getKeysHandler(w http.ResponseWriter, req *http.Request) {
	pattern := req.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	keys, err := ctrl.store.Keys(req.Context(), pattern)
	if err != nil {
		ctrl.respondStoreErr(w, fmt.Errorf("listing keys in store: %w", err))
		return
	}

	ctrl.respondOK(w, dto.Keys{
		Keys: lo.Map(keys, func(key string, _ int) []byte {
			return []byte(key)
		}),
	})
}

func (ctrl *HttpController) respondOK(w http.ResponseWriter, body any) {
	ctrl.metrics.successProcessCnt.Inc()
	_ = http_helpers.RespondOK(w, body)
}

func (ctrl *HttpController) respondStoreErr(w http.ResponseWriter, err error) {
	var (
		notFound model.KeyNotFoundError
		connErr  model.ConnectionError
	)

	switch {
	case errors.As(err, &notFound):
		ctrl.metrics.successProcessCnt.Inc()
		_ = http_helpers.RespondWithErr(w, http.StatusNotFound, err)
	case errors.As(err, &connErr), errors.Is(err, model.ErrClosed):
		ctrl.logger.Error().Err(err).Send()
		ctrl.metrics.errProcessCnt.Inc()
		_ = http_helpers.RespondWithErr(w, http.StatusServiceUnavailable, err)
	default:
		ctrl.logger.Error().Err(err).Send()
		ctrl.metrics.errProcessCnt.Inc()
		_ = http_helpers.RespondWithErr(w, http.StatusInternalServerError, err)
	}
}
