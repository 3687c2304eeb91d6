package sideeffect

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
)

type (
	// Dispatcher delivers side-effect requests to the collaborator.
	// Implementations must be safe for concurrent use.
	Dispatcher interface {
		Dispatch(ctx context.Context, reqs []Request)
	}

	// LogDispatcher only logs the requests. Used when no collaborator endpoint
	// is configured; the pipeline stays usable with zero external dependencies.
	LogDispatcher struct {
		logger *mylog.Logger
	}

	// HTTPDispatcher posts each request to the collaborator endpoint,
	// fire-and-forget: the acknowledgment is logged, never awaited by the
	// caller's response.
	HTTPDispatcher struct {
		logger  *mylog.Logger
		client  *http.Client
		baseURL string
	}
)

var (
	_ Dispatcher = (*LogDispatcher)(nil)
	_ Dispatcher = (*HTTPDispatcher)(nil)
)

func NewLogDispatcher(logger *mylog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, reqs []Request) {
	for _, req := range reqs {
		d.logger.Info("side effect requested",
			slog.String("kind", string(req.Kind)),
			slog.String("case_id", req.CaseID),
			slog.String("title", req.Title),
		)
	}
}

func NewHTTPDispatcher(logger *mylog.Logger, baseURL string) *HTTPDispatcher {
	return &HTTPDispatcher{
		logger:  logger,
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
	}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, reqs []Request) {
	// Detached from the request context so client cancellation does not
	// abort deliveries already decided on.
	ctx = context.WithoutCancel(ctx)
	go func() {
		for _, req := range reqs {
			if err := d.post(ctx, req); err != nil {
				d.logger.Warn("side effect delivery failed",
					slog.String("kind", string(req.Kind)), mylog.Err(err))
				continue
			}
			d.logger.Info("side effect delivered",
				slog.String("kind", string(req.Kind)), slog.String("title", req.Title))
		}
	}()
}

func (d *HTTPDispatcher) post(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal side effect")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/api/side-effects", bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed to build side effect request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "failed to deliver side effect")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Wrapf(errors.ErrUnavailable, "collaborator responded %d", resp.StatusCode)
	}

	return nil
}
