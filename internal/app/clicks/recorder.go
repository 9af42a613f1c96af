package clicks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/geo"
	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/linklytics/linklytics/internal/app/storage"
	"github.com/linklytics/linklytics/internal/app/useragent"
	"github.com/linklytics/linklytics/internal/app/webhook"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"go.uber.org/zap"
)

// Request — сырые данные запроса, из которых собирается событие клика
type Request struct {
	IPAddress   string
	UserAgent   string
	Referer     string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
	Variant     *int
}

// Task — единица работы воркера: данные ссылки, значение счётчика
// с учётом текущего перехода и сырые данные запроса
type Task struct {
	Link    webhook.LinkInfo
	Clicks  int64
	Request Request
}

// Recorder записывает события кликов через пул воркеров.
// Постановка в очередь не блокирует обработчик редиректа: при
// заполненной очереди событие отбрасывается с записью в лог.
// Ошибки обогащения и сохранения логируются и не распространяются.
type Recorder struct {
	storage    storage.Storage
	geo        geo.Resolver
	dispatcher *webhook.Dispatcher
	queue      chan Task
	wg         sync.WaitGroup
}

// NewRecorder запускает пул воркеров записи кликов.
// Диспетчер вебхуков может быть nil, тогда события не рассылаются.
func NewRecorder(store storage.Storage, geoResolver geo.Resolver, dispatcher *webhook.Dispatcher, workers, queueSize int) *Recorder {
	r := &Recorder{
		storage:    store,
		geo:        geoResolver,
		dispatcher: dispatcher,
		queue:      make(chan Task, queueSize),
	}

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// Enqueue ставит клик в очередь на запись, никогда не блокируя вызывающего
func (r *Recorder) Enqueue(t Task) {
	select {
	case r.queue <- t:
	default:
		logger.Log.Warn("click queue is full, discarding click event",
			zap.String("linkID", t.Link.ID))
	}
}

// Close останавливает приём и дожидается записи оставшихся событий
func (r *Recorder) Close() {
	close(r.queue)
	r.wg.Wait()
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for t := range r.queue {
		// жизненный цикл записи не привязан к запросу клиента
		r.Record(context.Background(), t)
	}
}

// Record синхронно обогащает и сохраняет событие клика, после чего
// рассылает событие click и пересечённые пороги milestone.
// Классификация User-Agent и гео-поиск выполняются здесь, после того
// как ответ с редиректом уже отправлен клиенту.
func (r *Recorder) Record(ctx context.Context, t Task) models.ClickEvent {
	ua := useragent.Parse(t.Request.UserAgent)
	location := r.geo.Lookup(ctx, t.Request.IPAddress)

	event := models.ClickEvent{
		ID:        uuid.NewString(),
		LinkID:    t.Link.ID,
		IPAddress: t.Request.IPAddress,
		UserAgent: t.Request.UserAgent,
		Referer:   t.Request.Referer,

		Country:     location.Country,
		CountryCode: location.CountryCode,
		City:        location.City,
		Region:      location.Region,
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,

		Device:  ua.Device,
		Browser: ua.Browser,
		OS:      ua.OS,

		UTMSource:   t.Request.UTMSource,
		UTMMedium:   t.Request.UTMMedium,
		UTMCampaign: t.Request.UTMCampaign,
		UTMTerm:     t.Request.UTMTerm,
		UTMContent:  t.Request.UTMContent,

		IsBot:    ua.IsBot,
		IsMobile: ua.IsMobile,
		Variant:  t.Request.Variant,

		ClickedAt: time.Now(),
	}

	if err := r.storage.CreateClick(ctx, event); err != nil {
		logger.Log.Error("failed to persist click event",
			zap.String("linkID", t.Link.ID), zap.Error(err))
	}

	if r.dispatcher != nil {
		r.dispatcher.Dispatch(ctx, t.Link.UserID, models.EventClick, webhook.ClickInfo{
			IPAddress: event.IPAddress,
			Country:   event.Country,
			City:      event.City,
			Device:    event.Device,
			Browser:   event.Browser,
			Referer:   event.Referer,
			Variant:   event.Variant,
		})
		r.dispatcher.CheckMilestones(ctx, t.Link, t.Clicks-1, t.Clicks)
	}
	return event
}
