package uploader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/crashdesk/ondemand/internal/infra/config"
	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"github.com/crashdesk/ondemand/internal/utils/requestctx"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	HeaderReportID       = "X-Report-ID"
	HeaderReportKind     = "X-Report-Kind"
	HeaderUploadPriority = "X-Upload-Priority"
	HeaderRequestID      = "X-Request-ID"

	PriorityUrgent = "urgent"
	PriorityNormal = "normal"
)

var (
	// ErrUploadRejected is returned when the backend refuses a report.
	ErrUploadRejected     = errors.New("report rejected by backend")
	// ErrBackendUnavailable is returned while the circuit breaker is open.
	ErrBackendUnavailable = errors.New("crash backend unavailable")
)

// Observer is notified after every upload attempt that reached the breaker.
type Observer func(urgent bool, err error, took time.Duration)

// Option configures an Uploader.
type Option func(*Uploader)

// WithObserver sets the upload observer.
func WithObserver(observer Observer) Option {
	return func(u *Uploader) {
		u.observer = observer
	}
}

// Uploader sends report payloads to the crash backend over HTTP.
// Urgent uploads bypass the rate limiter; all uploads share one circuit breaker.
type Uploader struct {
	http     *resty.Client
	breaker  *gobreaker.CircuitBreaker[*resty.Response]
	limiter  *rate.Limiter
	observer Observer
	logger   *zap.Logger
}

// New creates a new uploader. transport may be nil to use resty's default.
func New(cfg config.UploadConfig, transport http.RoundTripper, logger *zap.Logger, opts ...Option) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("uploader")

	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(isRetryable).
		SetHeader("Content-Type", "application/json")
	if transport != nil {
		client.SetTransport(transport)
	}
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	failureThreshold := cfg.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	breaker := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        "crash-backend",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.CircuitTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		// A rejected report says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUploadRejected) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	u := &Uploader{
		http:     client,
		breaker:  breaker,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Compile-time check
var _ outbound.ReportUploaderPort = (*Uploader)(nil)

// Upload posts the payload to the backend.
func (u *Uploader) Upload(ctx context.Context, report *model.Report, payload []byte, urgent bool) error {
	priority := PriorityNormal
	if urgent {
		priority = PriorityUrgent
	} else if err := u.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for upload slot: %w", err)
	}

	start := time.Now()
	resp, err := u.breaker.Execute(func() (*resty.Response, error) {
		req := u.http.R().SetContext(ctx)
		if id := requestctx.RequestID(ctx); id != "" {
			req.SetHeader(HeaderRequestID, id)
		}
		resp, err := req.
			SetHeader(HeaderReportID, report.ID.String()).
			SetHeader(HeaderReportKind, report.Kind.String()).
			SetHeader(HeaderUploadPriority, priority).
			SetBody(payload).
			Post("")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, statusError(resp)
		}
		return resp, nil
	})
	if u.observer != nil {
		u.observer(urgent, err, time.Since(start))
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ErrBackendUnavailable
		}
		return err
	}

	u.logger.Debug("report uploaded",
		zap.String("report_id", report.ID.String()),
		zap.String("priority", priority),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", resp.Time()))
	return nil
}

// State returns the circuit breaker state.
func (u *Uploader) State() gobreaker.State {
	return u.breaker.State()
}

func statusError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout {
		return fmt.Errorf("%w: status %d", ErrUploadRejected, code)
	}
	return fmt.Errorf("upload failed: status %d", code)
}

func isRetryable(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}
