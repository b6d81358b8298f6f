package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BreakerConfig tunes the circuit breaker placed in front of each upstream.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips after 5+ calls with an 80% failure ratio and
// probes again after a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.With(logger.Fields{logger.FieldUpstream: name}).
				Warn(context.Background(), "Circuit breaker state changed from %s to %s", from, to)
		},
	})
}

// StatusError is a non-2xx response from an upstream.
type StatusError struct {
	Upstream   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Upstream, e.StatusCode)
}

// upstream bundles what every outbound client needs: a resty client, a breaker
// and metrics.
type upstream struct {
	name    string
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	metrics *telemetry.Metrics
}

func newUpstream(name string, timeout time.Duration, metrics *telemetry.Metrics) *upstream {
	client := resty.New()
	client.SetTimeout(timeout)
	return &upstream{
		name:    name,
		client:  client,
		breaker: newBreaker(name, DefaultBreakerConfig()),
		metrics: metrics,
	}
}

// do runs send through the breaker. Any non-2xx becomes a *StatusError and
// only 5xx responses count against the breaker.
func (u *upstream) do(ctx context.Context, send func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	ctx, span := telemetry.StartSpan(ctx, u.name+".request")
	defer span.End()

	start := time.Now()
	var status *StatusError

	out, err := u.breaker.Execute(func() (interface{}, error) {
		resp, err := send(u.client.R().SetContext(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			status = &StatusError{Upstream: u.name, StatusCode: resp.StatusCode()}
			if resp.StatusCode() >= 500 {
				return resp, status
			}
		}
		return resp, nil
	})

	outcome := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "open"
	case err != nil && status == nil:
		outcome = "error"
	case status != nil:
		outcome = "status"
	}
	u.metrics.ObserveUpstream(u.name, outcome, time.Since(start))
	span.SetAttributes(attribute.String("upstream.outcome", outcome))

	if status != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", status.StatusCode))
		span.SetStatus(codes.Error, status.Error())
		resp, _ := out.(*resty.Response)
		return resp, status
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s request failed: %w", u.name, err)
	}
	return out.(*resty.Response), nil
}
