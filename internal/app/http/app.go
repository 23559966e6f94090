package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"portfolio/internal/lib/jwt"
	"portfolio/internal/lib/logger/sl"
	prommw "portfolio/internal/middleware"
	httprouters "portfolio/internal/transport/http"
	"portfolio/internal/transport/http/dto/response"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// HealthChecker is a dependency probed by /healthz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Config struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	BodyLimit     string
	SessionSecret string
	JWTSecret     string
	UploadsDir    string
}

type Server struct {
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	cfg     Config
	health  map[string]HealthChecker
}

func New(log *slog.Logger, cfg Config, routers *httprouters.Routers, health map[string]HealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	e.Use(prommw.PrometheusMetrics)
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.SessionSecret))))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogMethod:   true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, sl.Err(v.Error))
			}
			log.Info("request", attrs...)

			return nil
		},
	}))

	return &Server{
		log:     log,
		e:       e,
		routers: routers,
		cfg:     cfg,
		health:  health,
	}
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info("starting http server", slog.String("op", op), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping http server", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.Host, s.cfg.Port)
}

// adminAuth accepts only admin tokens signed with the configured secret.
func (s *Server) adminAuth() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return jwt.ParseAdminToken([]byte(s.cfg.JWTSecret), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		},
	})
}

func (s *Server) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	code := http.StatusOK
	for name, h := range s.health {
		if err := h.HealthCheck(ctx); err != nil {
			s.log.Warn("health check failed", slog.String("dependency", name), sl.Err(err))
			status[name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "up"
	}

	return c.JSON(code, status)
}

func (s *Server) BuildRouters() {
	s.e.GET("/healthz", s.healthz)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.e.GET("/swagger/*", echoSwagger.WrapHandler)
	if s.cfg.UploadsDir != "" {
		s.e.Static("/uploads", s.cfg.UploadsDir)
	}

	api := s.e.Group("/api/v1")
	{
		api.POST("/login", s.routers.Login)

		api.GET("/collections", s.routers.ListPublicCollections)
		api.GET("/collections/:slug", s.routers.GetPublicCollection)
		api.POST("/collections/:slug/access", s.routers.GalleryAccess)
	}

	admin := api.Group("/admin", s.adminAuth())

	collections := admin.Group("/collections")
	{
		collections.GET("", s.routers.ListCollections)
		collections.POST("", s.routers.CreateCollection)
		collections.GET("/:id", s.routers.GetCollection)
		collections.PUT("/:id", s.routers.UpdateCollection)
		collections.DELETE("/:id", s.routers.DeleteCollection)
		collections.POST("/:id/reorder", s.routers.ReorderCollection)
		collections.POST("/:id/compact", s.routers.CompactCollection)
		collections.PUT("/:id/cover", s.routers.SetCoverImage)
		collections.POST("/:id/upload", s.routers.UploadContent)
		collections.POST("/:id/content", s.routers.AttachContent)
		collections.POST("/:id/content/detach", s.routers.DetachContent)
		collections.POST("/:id/content/move", s.routers.MoveContent)
		collections.PUT("/:id/content/:content_id/visibility", s.routers.SetContentVisibility)
	}

	content := admin.Group("/content")
	{
		content.POST("/text", s.routers.CreateTextContent)
		content.POST("/collection", s.routers.CreateCollectionReference)
		content.POST("/batch", s.routers.BatchLoadContent)
		content.GET("/:id", s.routers.GetContent)
		content.DELETE("/:id", s.routers.DeleteContent)
		content.PUT("/images/:id", s.routers.UpdateImage)
		content.PUT("/texts/:id", s.routers.UpdateText)
	}

	vocabulary := admin.Group("/vocabulary")
	{
		vocabulary.GET("/:kind", s.routers.ListTerms)
		vocabulary.POST("/:kind", s.routers.CreateTerm)
		vocabulary.DELETE("/:kind/:id", s.routers.DeleteTerm)
	}

	filmTypes := admin.Group("/film-types")
	{
		filmTypes.GET("", s.routers.ListFilmTypes)
		filmTypes.POST("", s.routers.CreateFilmType)
		filmTypes.DELETE("/:id", s.routers.DeleteFilmType)
	}
}
