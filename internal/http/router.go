package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/config"
	httpmiddleware "github.com/imobilead/api/internal/http/middleware"
	"github.com/imobilead/api/internal/imobiliaria"
	"github.com/imobilead/api/internal/lead"
	"github.com/imobilead/api/internal/notify"
	"github.com/imobilead/api/internal/service"
	"github.com/imobilead/api/internal/status"
	"github.com/imobilead/api/internal/storage"
	"github.com/imobilead/api/internal/usuario"
)

// Handler agrega as dependências expostas pelas rotas.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	auditService  *audit.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter monta o roteador com todos os domínios ligados.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, error) {
	recorder := audit.NewRecorder(pool)

	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			PublicDomain: cfg.Storage.PublicDomain,
		})
		if err != nil {
			return nil, err
		}
		uploader = s3
	}

	var notifier notify.Notifier
	if wa := notify.NewWhatsAppNotifier(cfg.WhatsApp.BaseURL, cfg.WhatsApp.InstanceID, cfg.WhatsApp.Token); wa != nil {
		notifier = wa
	}

	imobRepo := imobiliaria.NewRepository(pool, recorder)
	imobService := imobiliaria.NewService(imobRepo)
	imobHandler := imobiliaria.NewHandler(imobService)

	userRepo := usuario.NewRepository(pool, recorder)
	userService := usuario.NewService(userRepo)
	userHandler := usuario.NewHandler(userService)

	statusRepo := status.NewRepository(pool, recorder)
	statusService := status.NewService(statusRepo)
	statusHandler := status.NewHandler(statusService)

	leadRepo := lead.NewRepository(pool, recorder)
	leadService := lead.NewService(leadRepo, statusRepo, userRepo, notifier, uploader)
	leadHandler := lead.NewHandler(leadService)

	auditService := audit.NewService(audit.NewRepository(pool))

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		auditService:  auditService,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(httpmiddleware.Metrics)

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Handle("/metrics", promhttp.Handler())

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
		})

		leadHandler.RegisterPublicRoutes(public)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)
		private.Post("/auth/logout", h.Logout)

		imobHandler.RegisterRoutes(private)
		userHandler.RegisterRoutes(private)
		statusHandler.RegisterRoutes(private)
		leadHandler.RegisterRoutes(private)

		private.With(httpmiddleware.RequireAdmin).Get("/audit-logs", h.ListAuditLogs)
	})

	return r, nil
}
