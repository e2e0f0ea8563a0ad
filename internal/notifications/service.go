package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyfetch/internal/config"
)

const userAgent = "storyfetch/0.1.0"

// Service delivers operational run-outcome events. Distinct from the mail
// Notifier, which is part of the pipeline itself: a failed push here never
// fails a run.
type Service interface {
	NotifyRunCompleted(ctx context.Context, date time.Time, clips int, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, date time.Time, runErr error) error
}

// NewService builds a push notification service backed by ntfy when
// configured. When no topic is configured, a noop implementation is
// returned.
func NewService(cfg config.Ntfy) Service {
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, date time.Time, clips int, duration time.Duration) error {
	data := payload{
		title:   "storyfetch - Run Complete",
		message: fmt.Sprintf("Archived %d stories for %s (%s of video)", clips, date.Format("2006-01-02"), duration.Round(time.Second)),
		tags:    []string{"storyfetch", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, date time.Time, runErr error) error {
	message := fmt.Sprintf("Run for %s failed", date.Format("2006-01-02"))
	if runErr != nil {
		message = fmt.Sprintf("%s: %v", message, runErr)
	}
	data := payload{
		title:    "storyfetch - Run Failed",
		message:  message,
		tags:     []string{"storyfetch", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ntfy returned %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, time.Time, int, time.Duration) error {
	return nil
}

func (noopService) NotifyRunFailed(context.Context, time.Time, error) error {
	return nil
}
