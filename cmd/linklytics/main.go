package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/linklytics/linklytics/internal/app/clicks"
	"github.com/linklytics/linklytics/internal/app/config"
	"github.com/linklytics/linklytics/internal/app/fraud"
	"github.com/linklytics/linklytics/internal/app/geo"
	"github.com/linklytics/linklytics/internal/app/handlers"
	"github.com/linklytics/linklytics/internal/app/resolver"
	"github.com/linklytics/linklytics/internal/app/service"
	"github.com/linklytics/linklytics/internal/app/storage"
	"github.com/linklytics/linklytics/internal/app/webhook"
	"github.com/linklytics/linklytics/internal/middleware/auth"
	"github.com/linklytics/linklytics/internal/middleware/compress"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"github.com/linklytics/linklytics/internal/middleware/ratelimit"
	"github.com/linklytics/linklytics/internal/middleware/realip"
	"github.com/linklytics/linklytics/internal/middleware/trustedsubnet"
	"github.com/linklytics/linklytics/internal/pprof"
	"github.com/linklytics/linklytics/internal/scripts"
	"go.uber.org/zap"
)

func main() {
	if err := runServer(); err != nil {
		panic(err)
	}
}

// Router собирает маршруты сервиса: публичный редирект, JSON API под
// авторизацией и внутреннюю статистику за доверенной подсетью
func Router(conf *config.Config, h *handlers.Handler, limiter *ratelimit.Limiter) chi.Router {
	router := chi.NewRouter()
	router.Use(logger.RequestLogger)
	router.Use(realip.Middleware)
	router.Use(compress.GzipMiddleware)

	// Анонимный трафик редиректов ограничивается по IP. API-группа
	// считает квоту отдельно, по идентификатору пользователя.
	router.Group(func(public chi.Router) {
		public.Use(limiter.Middleware)

		public.Get("/ping", h.Ping)
		public.Get("/{code}", h.RedirectHandle)
	})

	router.Route("/api", func(api chi.Router) {
		api.Group(func(private chi.Router) {
			private.Use(auth.AuthorizationMiddleware)
			private.Use(limiter.Middleware)

			private.Post("/urls", h.CreateLinkHandle)
			private.Get("/urls", h.GetUserLinksHandle)
			private.Get("/urls/{id}", h.GetLinkHandle)
			private.Patch("/urls/{id}", h.UpdateLinkHandle)
			private.Delete("/urls/{id}", h.DeleteLinkHandle)

			private.Post("/webhooks", h.CreateWebhookHandle)
			private.Get("/webhooks", h.GetWebhooksHandle)
			private.Patch("/webhooks/{id}", h.UpdateWebhookHandle)
			private.Delete("/webhooks/{id}", h.DeleteWebhookHandle)
			private.Post("/webhooks/{id}/test", h.TestWebhookHandle)
		})

		api.Group(func(internal chi.Router) {
			var trustedNet *net.IPNet
			if conf.TrustedSubnet != "" {
				if _, parsed, err := net.ParseCIDR(conf.TrustedSubnet); err == nil {
					trustedNet = parsed
				} else {
					logger.Log.Warn("invalid trusted subnet", zap.String("subnet", conf.TrustedSubnet))
				}
			}
			internal.Use(trustedsubnet.TrustedSubnetMiddleware(trustedNet))
			internal.Get("/internal/stats", h.InternalStatsHandle)
		})
	})

	return router
}

func runServer() error {
	conf := config.LoadConfig()

	if err := logger.Initialize(conf.LoggerLevel); err != nil {
		return err
	}

	pprof.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	var store storage.Storage
	if conf.DatabaseDSN != "" {
		if err := scripts.RunMigrations(conf.DatabaseDSN); err != nil {
			return err
		}
		pg, err := storage.NewPostgresStorage(ctx, conf.DatabaseDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
	} else {
		logger.Log.Info("database DSN is empty, using in-memory storage")
		store = storage.NewMemoryStorage()
	}

	var linkCache cache.LinkCache
	var counters cache.Counters
	if redis, err := cache.NewRedis(ctx, conf.RedisAddress); err == nil {
		defer redis.Close()
		linkCache, counters = redis, redis
	} else {
		logger.Log.Warn("redis is unavailable, using in-process cache", zap.Error(err))
		mem := cache.NewMemory()
		linkCache, counters = mem, mem
	}

	res := resolver.New(store, linkCache, conf.CacheTTL)
	detector := fraud.NewDetector(counters, conf.FraudWindow, conf.FraudMaxClicks, conf.BlockDuration)
	limiter := ratelimit.NewLimiter(counters, conf.RateLimitWindow, conf.RateLimitMax, conf.RateLimitAuth)
	dispatcher := webhook.NewDispatcher(store, conf.WebhookTimeout)
	geoClient := geo.NewClient(conf.GeoAPIURL)
	recorder := clicks.NewRecorder(store, geoClient, dispatcher, conf.ClickWorkers, conf.ClickQueueSize)

	svc := service.NewService(store, res, dispatcher, conf.BaseURL, conf.ShortCodeLength)
	h, err := handlers.NewHandler(conf, svc, res, detector, recorder)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    conf.ServerAddress,
		Handler: Router(conf, h, limiter),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("starting server", zap.String("address", conf.ServerAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server shutdown failed", zap.Error(err))
	}

	// дописываем уже принятые клики
	recorder.Close()
	return nil
}
