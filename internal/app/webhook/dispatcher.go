package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/linklytics/linklytics/internal/app/storage"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"go.uber.org/zap"
)

// payload — тело, отправляемое на адрес вебхука
type payload struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// LinkInfo — данные ссылки, попадающие в тело события
type LinkInfo struct {
	ID          string `json:"id"`
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`
	UserID      string `json:"-"`
}

// ClickInfo — данные клика для события click
type ClickInfo struct {
	IPAddress string `json:"ip_address,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
	Device    string `json:"device,omitempty"`
	Browser   string `json:"browser,omitempty"`
	Referer   string `json:"referer,omitempty"`
	Variant   *int   `json:"variant,omitempty"`
}

// Dispatcher доставляет события на подписанные вебхуки.
// Доставки на разные адреса идут независимо и параллельно: сбой одного
// адресата не задерживает и не срывает остальных. После пяти
// последовательных неудач вебхук отключается до ручной реактивации.
type Dispatcher struct {
	storage storage.Storage
	client  *resty.Client
}

// NewDispatcher создаёт диспетчер с жёстким таймаутом доставки
func NewDispatcher(store storage.Storage, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		storage: store,
		client:  resty.New().SetTimeout(timeout),
	}
}

// Sign вычисляет HMAC-SHA256 подпись тела события
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Dispatch загружает активные вебхуки пользователя, подписанные на тип
// события, и доставляет событие каждому из них. Ошибки логируются и не
// возвращаются: доставка выполняется по принципу best-effort.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, event string, data interface{}) {
	hooks, err := d.storage.GetActiveWebhooks(ctx, userID)
	if err != nil {
		logger.Log.Error("failed to load webhooks", zap.String("userID", userID), zap.Error(err))
		return
	}

	body, err := json.Marshal(payload{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
	if err != nil {
		logger.Log.Error("failed to marshal webhook payload", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, hook := range hooks {
		if !hook.Subscribed(event) {
			continue
		}
		wg.Add(1)
		go func(hook models.Webhook) {
			defer wg.Done()
			d.deliver(ctx, hook, event, body)
		}(hook)
	}
	wg.Wait()
}

// deliver выполняет одну доставку и обновляет состояние вебхука
func (d *Dispatcher) deliver(ctx context.Context, hook models.Webhook, event string, body []byte) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Linklytics-Signature", Sign(body, hook.Secret)).
		SetHeader("X-Linklytics-Event", event).
		SetBody(body).
		Post(hook.URL)

	if err == nil && !resp.IsError() {
		now := time.Now()
		if err := d.storage.UpdateWebhookDelivery(ctx, hook.ID, 0, true, &now); err != nil {
			logger.Log.Error("failed to update webhook state", zap.String("id", hook.ID), zap.Error(err))
		}
		return
	}

	logger.Log.Info("webhook delivery failed",
		zap.String("id", hook.ID), zap.String("url", hook.URL), zap.Error(err))

	failureCount := hook.FailureCount + 1
	isActive := failureCount < models.WebhookMaxFailures
	if !isActive {
		logger.Log.Warn("webhook disabled after consecutive failures",
			zap.String("id", hook.ID), zap.String("url", hook.URL))
	}
	if err := d.storage.UpdateWebhookDelivery(ctx, hook.ID, failureCount, isActive, nil); err != nil {
		logger.Log.Error("failed to update webhook state", zap.String("id", hook.ID), zap.Error(err))
	}
}

// SendTest доставляет тестовое событие на один вебхук независимо от его
// подписок. В отличие от Dispatch ошибка доставки возвращается
// вызывающему и не влияет на счётчик неудачных доставок.
func (d *Dispatcher) SendTest(ctx context.Context, hook models.Webhook) error {
	body, err := json.Marshal(payload{
		Event:     models.EventTest,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      map[string]string{"message": "This is a test webhook from LinkLytics"},
	})
	if err != nil {
		return err
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Linklytics-Signature", Sign(body, hook.Secret)).
		SetHeader("X-Linklytics-Event", models.EventTest).
		SetBody(body).
		Post(hook.URL)
	if err != nil {
		return fmt.Errorf("webhook test failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook test failed: status %d", resp.StatusCode())
	}
	return nil
}

// CheckMilestones отправляет событие milestone для каждого порога,
// пересечённого переходом счётчика с previous на current
func (d *Dispatcher) CheckMilestones(ctx context.Context, link LinkInfo, previous, current int64) {
	for _, milestone := range models.Milestones {
		if previous < milestone && current >= milestone {
			d.Dispatch(ctx, link.UserID, models.EventMilestone, map[string]interface{}{
				"url":       link,
				"milestone": milestone,
				"clicks":    current,
			})
		}
	}
}
