// Package catalog assembles the catalog services over shared storage,
// cache and push dependencies.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/paintref-backend/internal/brands"
	"github.com/angelmondragon/paintref-backend/internal/colorsearches"
	"github.com/angelmondragon/paintref-backend/internal/flags"
	"github.com/angelmondragon/paintref-backend/internal/images"
	"github.com/angelmondragon/paintref-backend/internal/notifications"
	"github.com/angelmondragon/paintref-backend/internal/ownership"
	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/internal/palettes"
	"github.com/angelmondragon/paintref-backend/internal/projects"
	"github.com/angelmondragon/paintref-backend/internal/similarity"
	"github.com/angelmondragon/paintref-backend/internal/submissions"
	"github.com/angelmondragon/paintref-backend/internal/users"
	"github.com/angelmondragon/paintref-backend/pkg/config"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/metrics"
	"github.com/angelmondragon/paintref-backend/pkg/push"
	"github.com/angelmondragon/paintref-backend/pkg/redis"
)

// Store is the Redis surface shared by the brand cache and the wishlist lock.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CompareAndDelete(ctx context.Context, key, token string) (bool, error)
	CacheKey(parts ...string) string
}

// Params carries the process-level dependencies. Cache and Metrics are
// optional; without a cache brand lookups hit the database and wishlist
// mutations run unlocked.
type Params struct {
	Config  config.CatalogConfig
	Push    config.PushConfig
	DB      *db.Client
	Cache   Store
	Sender  push.Sender
	Metrics *metrics.CatalogMetrics
	Logger  *logger.Logger
}

// Catalog holds every catalog service, wired together.
type Catalog struct {
	Users         *users.Repository
	Brands        *brands.Directory
	Paints        paints.Service
	Similarity    *similarity.Ranker
	Ownership     ownership.Service
	Palettes      palettes.Service
	Images        *images.Service
	ColorSearches *colorsearches.Service
	Submissions   submissions.Service
	Projects      projects.Service
	Flags         *flags.Service
	Notifications notifications.Service
	Dispatcher    *notifications.Dispatcher
}

func New(params Params) (*Catalog, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("push sender required")
	}
	conn := params.DB.DB()

	userRepo := users.NewRepository(conn)
	brandRepo := brands.NewRepository(conn)
	paintRepo := paints.NewRepository(conn)
	paletteRepo := palettes.NewRepository(conn)

	dirParams := brands.DirectoryParams{Repo: brandRepo, TTL: params.Config.BrandCacheTTL, Logger: params.Logger}
	if params.Cache != nil {
		dirParams.Cache = params.Cache
	}
	directory, err := brands.NewDirectory(dirParams)
	if err != nil {
		return nil, fmt.Errorf("brand directory: %w", err)
	}

	notifySvc, err := notifications.NewService(notifications.ServiceParams{
		Users:       userRepo,
		Sender:      params.Sender,
		BatchSize:   params.Push.BatchSize,
		SendTimeout: params.Push.SendTimeout,
		Metrics:     params.Metrics,
		Logger:      params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("notification service: %w", err)
	}
	dispatcher := notifications.NewDispatcher(notifySvc, params.Logger)

	paintSvc, err := paints.NewService(paints.ServiceParams{
		Repo:              paintRepo,
		DB:                params.DB,
		Brands:            directory,
		Palettes:          paletteRepo,
		Metrics:           params.Metrics,
		Logger:            params.Logger,
		CategoryBatchSize: params.Config.CategoryBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("paint service: %w", err)
	}

	ranker, err := similarity.NewRanker(similarity.RankerParams{
		Paints:      paintRepo,
		Brands:      directory,
		Concurrency: params.Config.RankerConcurrency,
		Metrics:     params.Metrics,
		Logger:      params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity ranker: %w", err)
	}

	ownershipParams := ownership.ServiceParams{
		Repo:     ownership.NewRepository(conn),
		DB:       params.DB,
		Users:    userRepo,
		Brands:   directory,
		Paints:   paintRepo,
		Palettes: paletteRepo,
		Notifier: dispatcher,
		Logger:   params.Logger,
	}
	if params.Cache != nil {
		locker, err := redis.NewLocker(params.Cache, params.Config.ReorderLockTTL, params.Config.ReorderLockBackoff)
		if err != nil {
			return nil, fmt.Errorf("wishlist locker: %w", err)
		}
		ownershipParams.Locker = locker
	}
	ownershipSvc, err := ownership.NewService(ownershipParams)
	if err != nil {
		return nil, fmt.Errorf("ownership service: %w", err)
	}

	paletteSvc, err := palettes.NewService(palettes.ServiceParams{
		Repo:    paletteRepo,
		DB:      params.DB,
		Users:   userRepo,
		Paints:  paintRepo,
		Brands:  directory,
		Metrics: params.Metrics,
		Logger:  params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("palette service: %w", err)
	}

	imageRepo := images.NewRepository(conn)
	imageSvc, err := images.NewService(imageRepo, userRepo)
	if err != nil {
		return nil, fmt.Errorf("image service: %w", err)
	}

	searchSvc, err := colorsearches.NewService(colorsearches.NewRepository(conn), paintRepo, directory)
	if err != nil {
		return nil, fmt.Errorf("color search service: %w", err)
	}

	submissionSvc, err := submissions.NewService(submissions.ServiceParams{
		Repo:     submissions.NewRepository(conn),
		DB:       params.DB,
		Paints:   paintSvc,
		Users:    userRepo,
		Notifier: dispatcher,
		Logger:   params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("submission service: %w", err)
	}

	projectSvc, err := projects.NewService(projects.ServiceParams{
		Repo:     projects.NewRepository(conn),
		DB:       params.DB,
		Users:    userRepo,
		Paints:   paintRepo,
		Palettes: paletteRepo,
		Images:   imageRepo,
		Logger:   params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("project service: %w", err)
	}

	flagSvc, err := flags.NewService(flags.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("flag service: %w", err)
	}

	return &Catalog{
		Users:         userRepo,
		Brands:        directory,
		Paints:        paintSvc,
		Similarity:    ranker,
		Ownership:     ownershipSvc,
		Palettes:      paletteSvc,
		Images:        imageSvc,
		ColorSearches: searchSvc,
		Submissions:   submissionSvc,
		Projects:      projectSvc,
		Flags:         flagSvc,
		Notifications: notifySvc,
		Dispatcher:    dispatcher,
	}, nil
}

// Shutdown waits for in-flight notifications or until ctx ends.
func (c *Catalog) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.Dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
