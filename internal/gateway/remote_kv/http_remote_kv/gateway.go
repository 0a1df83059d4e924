package http_remote_kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	controller_dto "github.com/horockey/nskv/internal/controller/http_controller/dto"
	"github.com/horockey/nskv/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

var _ model.Store = &httpRemoteKV{}

type httpRemoteKV struct {
	cl      *resty.Client
	baseURL string
	closed  bool
	metrics *metrics
	logger  zerolog.Logger
}

// Talks to an nskv HTTP proxy at baseURL.
func New(
	baseURL string,
	apiKey string,
	logger zerolog.Logger,
) *httpRemoteKV {
	return &httpRemoteKV{
		baseURL: baseURL,
		metrics: newMetrics(),
		logger:  logger,
		cl: resty.New().
			SetBaseURL(baseURL).
			SetHeader("X-Api-Key", apiKey).
			SetRetryCount(0),
	}
}

func (gw *httpRemoteKV) Metrics() []prometheus.Collector {
	return gw.metrics.list()
}

func (gw *httpRemoteKV) Get(ctx context.Context, key string) (res string, resErr error) {
	gw.logger.Debug().Str("key", key).Msg("Getting KV from remote")
	defer gw.observe(time.Now(), &resErr)

	if gw.closed {
		return "", model.ErrClosed
	}

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetPathParam("key", key).
		Get("/kv/{key}")
	if err != nil {
		return "", gw.transportErr("GET", err)
	}
	if err := gw.checkStatus("GET", key, resp); err != nil {
		return "", err
	}

	dtoKV := controller_dto.KV{}
	if err := json.Unmarshal(resp.Body(), &dtoKV); err != nil {
		return "", model.ProtocolError{Cmd: "GET", Err: fmt.Errorf("unmarshaling json: %w", err)}
	}

	return string(dtoKV.Value), nil
}

func (gw *httpRemoteKV) Set(ctx context.Context, key, value string) (res string, resErr error) {
	gw.logger.Debug().Str("key", key).Msg("Setting KV to remote")
	defer gw.observe(time.Now(), &resErr)

	if gw.closed {
		return "", model.ErrClosed
	}

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetPathParam("key", key).
		SetHeader("Content-Type", "application/json").
		SetBody(controller_dto.KV{Key: []byte(key), Value: []byte(value)}).
		Put("/kv/{key}")
	if err != nil {
		return "", gw.transportErr("SET", err)
	}
	if err := gw.checkStatus("SET", key, resp); err != nil {
		return "", err
	}

	ack := controller_dto.Ack{}
	if err := json.Unmarshal(resp.Body(), &ack); err != nil {
		return "", model.ProtocolError{Cmd: "SET", Err: fmt.Errorf("unmarshaling json: %w", err)}
	}

	return ack.Ack, nil
}

func (gw *httpRemoteKV) Del(ctx context.Context, key string) (res int64, resErr error) {
	gw.logger.Debug().Str("key", key).Msg("Deleting KV from remote")
	defer gw.observe(time.Now(), &resErr)

	if gw.closed {
		return 0, model.ErrClosed
	}

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetPathParam("key", key).
		Delete("/kv/{key}")
	if err != nil {
		return 0, gw.transportErr("DEL", err)
	}
	if err := gw.checkStatus("DEL", key, resp); err != nil {
		return 0, err
	}

	deleted := controller_dto.Deleted{}
	if err := json.Unmarshal(resp.Body(), &deleted); err != nil {
		return 0, model.ProtocolError{Cmd: "DEL", Err: fmt.Errorf("unmarshaling json: %w", err)}
	}

	return deleted.Deleted, nil
}

func (gw *httpRemoteKV) Exists(ctx context.Context, key string) (res bool, resErr error) {
	gw.logger.Debug().Str("key", key).Msg("Checking KV on remote")
	defer gw.observe(time.Now(), &resErr)

	if gw.closed {
		return false, model.ErrClosed
	}

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetPathParam("key", key).
		Get("/exists/{key}")
	if err != nil {
		return false, gw.transportErr("EXISTS", err)
	}
	if err := gw.checkStatus("EXISTS", key, resp); err != nil {
		return false, err
	}

	exists := controller_dto.Exists{}
	if err := json.Unmarshal(resp.Body(), &exists); err != nil {
		return false, model.ProtocolError{Cmd: "EXISTS", Err: fmt.Errorf("unmarshaling json: %w", err)}
	}

	return exists.Exists, nil
}

func (gw *httpRemoteKV) Keys(ctx context.Context, pattern string) (res []string, resErr error) {
	gw.logger.Debug().Str("pattern", pattern).Msg("Listing keys on remote")
	defer gw.observe(time.Now(), &resErr)

	if gw.closed {
		return nil, model.ErrClosed
	}

	resp, err := gw.cl.R().
		SetContext(ctx).
		SetQueryParam("pattern", pattern).
		Get("/keys")
	if err != nil {
		return nil, gw.transportErr("KEYS", err)
	}
	if err := gw.checkStatus("KEYS", pattern, resp); err != nil {
		return nil, err
	}

	keys := controller_dto.Keys{}
	if err := json.Unmarshal(resp.Body(), &keys); err != nil {
		return nil, model.ProtocolError{Cmd: "KEYS", Err: fmt.Errorf("unmarshaling json: %w", err)}
	}

	return lo.Map(keys.Keys, func(key []byte, _ int) string {
		return string(key)
	}), nil
}

func (gw *httpRemoteKV) Close() error {
	gw.closed = true
	return nil
}

func (gw *httpRemoteKV) observe(ts time.Time, resErr *error) {
	gw.metrics.requestsCnt.Inc()
	gw.metrics.handleTimeHist.Observe(float64(time.Since(ts)))

	var notFound model.KeyNotFoundError
	switch {
	case *resErr == nil, errors.As(*resErr, &notFound):
		gw.metrics.successProcessCnt.Inc()
	default:
		gw.metrics.errProcessCnt.Inc()
	}
}

func (gw *httpRemoteKV) transportErr(cmd string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("executing %s: %w", cmd, err)
	}
	return model.ConnectionError{Addr: gw.baseURL, Err: fmt.Errorf("executing %s request: %w", cmd, err)}
}

func (gw *httpRemoteKV) checkStatus(cmd string, key string, resp *resty.Response) error {
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return model.KeyNotFoundError{Key: key}
	case http.StatusServiceUnavailable:
		return model.ConnectionError{
			Addr: gw.baseURL,
			Err:  fmt.Errorf("proxy store unavailable (%s): %s", resp.Status(), resp.String()),
		}
	default:
		return model.ProtocolError{
			Cmd: cmd,
			Err: fmt.Errorf("got non-ok response (%s): %s", resp.Status(), resp.String()),
		}
	}
}
