package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"digimall/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier announces order events to tenant webhooks.
type WebhookNotifier interface {
	// Notify delivers in the background and never blocks the caller.
	Notify(tenant *models.Tenant, event *models.OrderEvent)
	Send(ctx context.Context, url string, event *models.OrderEvent) error
	Wait()
}

type webhookClient struct {
	httpClient *resty.Client
	timeout    time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewWebhookClient(timeout time.Duration, retries int, logger *zap.Logger) WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "digimall-webhooks/1").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &webhookClient{
		httpClient: client,
		timeout:    timeout * time.Duration(retries+1),
		logger:     logger,
	}
}

func (c *webhookClient) Notify(tenant *models.Tenant, event *models.OrderEvent) {
	if tenant.WebhookURL == nil || *tenant.WebhookURL == "" {
		return
	}
	url := *tenant.WebhookURL

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.Send(ctx, url, event); err != nil {
			c.logger.Warn("webhook delivery failed",
				zap.String("tenant_id", tenant.ID.String()),
				zap.String("event", event.Event),
				zap.String("order_id", event.OrderID.String()),
				zap.Error(err))
		}
	}()
}

func (c *webhookClient) Send(ctx context.Context, url string, event *models.OrderEvent) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-DigiMall-Event", event.Event).
		SetBody(event).
		Post(url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	c.logger.Debug("webhook delivered",
		zap.String("event", event.Event),
		zap.String("order_id", event.OrderID.String()),
		zap.Int("status", resp.StatusCode()))
	return nil
}

// Wait blocks until in-flight deliveries finish.
func (c *webhookClient) Wait() {
	c.wg.Wait()
}
