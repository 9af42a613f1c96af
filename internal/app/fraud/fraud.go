package fraud

import (
	"context"
	"time"

	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"go.uber.org/zap"
)

const (
	blockedKeyPrefix = "blocked_ip:"
	fraudKeyPrefix   = "click_fraud:"
)

// Detector выполняет проверки перед резолвом: членство IP в списке
// временно заблокированных и счётчик кликов в скользящем окне на пару
// (код, IP). Обе проверки при сбое инфраструктуры пропускают запрос:
// доступность важнее строгости.
type Detector struct {
	counters      cache.Counters
	window        time.Duration
	maxClicks     int64
	blockDuration time.Duration
}

// NewDetector создаёт детектор с заданными порогами
func NewDetector(counters cache.Counters, window time.Duration, maxClicks int64, blockDuration time.Duration) *Detector {
	return &Detector{
		counters:      counters,
		window:        window,
		maxClicks:     maxClicks,
		blockDuration: blockDuration,
	}
}

// IsBlocked проверяет членство IP в списке временно заблокированных.
// При недоступности счётчиков запрос пропускается, ошибка логируется.
func (d *Detector) IsBlocked(ctx context.Context, ipAddress string) bool {
	blocked, err := d.counters.HasFlag(ctx, blockedKeyPrefix+ipAddress)
	if err != nil {
		logger.Log.Warn("blocked ip check failed, allowing request",
			zap.String("ip", ipAddress), zap.Error(err))
		return false
	}
	return blocked
}

// Block временно блокирует IP-адрес
func (d *Detector) Block(ctx context.Context, ipAddress string) error {
	return d.counters.SetFlag(ctx, blockedKeyPrefix+ipAddress, d.blockDuration)
}

// IsFraudulent атомарно инкрементирует счётчик пары (код, IP) и сообщает,
// превышен ли лимит кликов в текущем окне. Первый клик в окне выставляет
// срок жизни счётчика. При сбое инфраструктуры запрос пропускается.
func (d *Detector) IsFraudulent(ctx context.Context, ipAddress, code string) bool {
	key := fraudKeyPrefix + code + ":" + ipAddress
	count, err := d.counters.IncrWithExpiry(ctx, key, d.window)
	if err != nil {
		logger.Log.Warn("fraud counter failed, allowing request",
			zap.String("ip", ipAddress), zap.String("code", code), zap.Error(err))
		return false
	}

	if count > d.maxClicks {
		logger.Log.Info("potential click fraud detected",
			zap.String("ip", ipAddress), zap.String("code", code), zap.Int64("count", count))
		return true
	}
	return false
}
