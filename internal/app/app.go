package app

import (
	"context"
	"log/slog"

	httpapp "portfolio/internal/app/http"
	"portfolio/internal/config"
	"portfolio/internal/imaging"
	"portfolio/internal/lib/credentials"
	"portfolio/internal/repository"
	"portfolio/internal/services/auth"
	collections "portfolio/internal/services/collection_service"
	contents "portfolio/internal/services/content_service"
	uploads "portfolio/internal/services/upload_service"
	vocabulary "portfolio/internal/services/vocabulary_service"
	filestorage "portfolio/internal/storage/filestorage"
	"portfolio/internal/storage/postgresql"
	redisapp "portfolio/internal/storage/redis"
	s3storage "portfolio/internal/storage/s3"
	httprouters "portfolio/internal/transport/http"
)

// ObjectStore is the media file backend: an S3 bucket, or the local
// directory when no bucket is configured.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

type App struct {
	HTTPServer *httpapp.Server

	repo  *repository.Repository
	redis *redisapp.Client
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) *App {
	if err := postgresql.Migrate(ctx, cfg.DSN); err != nil {
		panic(err)
	}

	db, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		panic(err)
	}
	repo := repository.NewRepository(db)

	redisClient := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	grants := repository.NewRedisAccessGrantRepo(redisClient)

	health := map[string]httpapp.HealthChecker{
		"postgres": db,
		"redis":    redisClient,
	}

	var (
		objects    ObjectStore
		uploadsDir string
	)
	if cfg.S3.Enabled() {
		store, err := s3storage.New(ctx, log, s3storage.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			CDNURL:    cfg.S3.CDNURL,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			panic(err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			panic(err)
		}
		objects = store
		health["s3"] = store
	} else {
		local, err := filestorage.NewLocalFileStorage(cfg.FileStorage.BaseDir, cfg.FileStorage.BaseURL)
		if err != nil {
			panic(err)
		}
		log.Warn("s3 bucket not configured, storing media on local disk", slog.String("dir", local.GetBaseDir()))
		objects = local
		uploadsDir = local.GetBaseDir()
	}

	imaging.Startup(cfg.Images.VipsWorkers)
	processor := imaging.NewProcessor(cfg.Images.WebMaxWidth, cfg.Images.WebPQuality, cfg.Images.ThumbnailWidth)

	verifier := credentials.NewChain(cfg.Auth.BcryptCost)
	tx := repo.Transactor()

	vocabularyService := vocabulary.NewVocabularyService(log, cfg.Cache.VocabularyTTL, map[vocabulary.Kind]repository.VocabularyRepository{
		vocabulary.KindTags:      repo.Tags,
		vocabulary.KindPeople:    repo.People,
		vocabulary.KindCameras:   repo.Cameras,
		vocabulary.KindLenses:    repo.Lenses,
		vocabulary.KindLocations: repo.Locations,
	}, repo.FilmTypes)

	contentService := contents.NewContentService(log, tx, contents.Repositories{
		Collections:       repo.Collection,
		CollectionContent: repo.CollectionContent,
		Content:           repo.Content,
		Cameras:           repo.Cameras,
		Lenses:            repo.Lenses,
		Locations:         repo.Locations,
		FilmTypes:         repo.FilmTypes,
	}, objects, vocabularyService)

	collectionService := collections.NewCollectionService(log, tx, collections.Repositories{
		Collections:       repo.Collection,
		CollectionContent: repo.CollectionContent,
		Content:           repo.Content,
	}, contentService, verifier, grants)

	uploadService := uploads.NewUploadService(log, tx, uploads.Repositories{
		Collections:       repo.Collection,
		CollectionContent: repo.CollectionContent,
		Content:           repo.Content,
		Cameras:           repo.Cameras,
		Lenses:            repo.Lenses,
	}, objects, processor, vocabularyService, cfg.Images.MaxFileSize)

	authService := auth.New(log, auth.Admin{
		Username:     cfg.Auth.AdminUsername,
		PasswordHash: cfg.Auth.AdminPasswordHash,
	}, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, cfg.ClientGallery.AccessTTL, repo.Collection, grants, verifier)

	routers := httprouters.NewRouter(log, collectionService, contentService, uploadService, vocabularyService, authService)

	server := httpapp.New(log, httpapp.Config{
		Host:          cfg.HTTP.Host,
		Port:          cfg.HTTP.Port,
		ReadTimeout:   cfg.HTTP.ReadTimeout,
		WriteTimeout:  cfg.HTTP.WriteTimeout,
		BodyLimit:     cfg.HTTP.MaxUploadSize,
		SessionSecret: cfg.HTTP.SessionSecret,
		JWTSecret:     cfg.Auth.JWTSecret,
		UploadsDir:    uploadsDir,
	}, routers, health)

	return &App{
		HTTPServer: server,
		repo:       repo,
		redis:      redisClient,
	}
}

// Stop releases everything New opened. The HTTP server is stopped separately.
func (a *App) Stop() {
	a.repo.Close()
	_ = a.redis.Close()
	imaging.Shutdown()
}
