package brands

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/redis"
	"gorm.io/gorm"
)

const defaultCacheTTL = 10 * time.Minute

// cacheStore is the redis surface used for the brand table snapshot.
type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Directory answers brand lookups for request-time joins. The brand table
// is small, so the whole table is cached as one snapshot in Redis.
type Directory struct {
	repo  *Repository
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// DirectoryParams groups dependencies for the brand directory. Cache is optional.
type DirectoryParams struct {
	Repo   *Repository
	Cache  cacheStore
	TTL    time.Duration
	Logger *logger.Logger
}

func NewDirectory(params DirectoryParams) (*Directory, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand repo is required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Directory{repo: params.Repo, cache: params.Cache, ttl: ttl, logg: params.Logger}, nil
}

// All returns every brand keyed by id.
func (d *Directory) All(ctx context.Context) (map[string]models.Brand, error) {
	list, err := d.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Brand, len(list))
	for _, b := range list {
		out[b.ID] = b
	}
	return out, nil
}

// List returns every brand ordered by name.
func (d *Directory) List(ctx context.Context) ([]models.Brand, error) {
	return d.list(ctx)
}

// Get loads one brand; missing brands map to NOT_FOUND.
func (d *Directory) Get(ctx context.Context, id string) (*models.Brand, error) {
	brand, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "brand not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
	}
	return brand, nil
}

// Resolve finds a brand by id first, then by exact name.
func (d *Directory) Resolve(ctx context.Context, idOrName string) (*models.Brand, error) {
	brand, err := d.repo.FindByID(ctx, idOrName)
	if err == nil {
		return brand, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
	}
	brand, err = d.repo.FindByName(ctx, idOrName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "brand not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand by name")
	}
	return brand, nil
}

// Create inserts a brand and drops the cached snapshot.
func (d *Directory) Create(ctx context.Context, brand *models.Brand) error {
	if brand == nil || brand.ID == "" || brand.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "brand id and name are required")
	}
	if err := d.repo.Create(ctx, brand); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create brand")
	}
	d.Invalidate(ctx)
	return nil
}

// Invalidate drops the cached snapshot; errors are logged.
func (d *Directory) Invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Del(ctx, d.cacheKey()); err != nil && d.logg != nil {
		d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "brand cache invalidate failed")
	}
}

func (d *Directory) list(ctx context.Context) ([]models.Brand, error) {
	if d.cache != nil {
		if cached, ok := d.readCache(ctx); ok {
			return cached, nil
		}
	}
	rows, err := d.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	if d.cache != nil {
		d.writeCache(ctx, rows)
	}
	return rows, nil
}

func (d *Directory) readCache(ctx context.Context) ([]models.Brand, bool) {
	raw, err := d.cache.Get(ctx, d.cacheKey())
	if err != nil {
		if !redis.IsMiss(err) && d.logg != nil {
			d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "brand cache read failed")
		}
		return nil, false
	}
	var rows []models.Brand
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		if d.logg != nil {
			d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "brand cache entry corrupt")
		}
		return nil, false
	}
	return rows, true
}

func (d *Directory) writeCache(ctx context.Context, rows []models.Brand) {
	payload, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, d.cacheKey(), string(payload), d.ttl); err != nil && d.logg != nil {
		d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "brand cache write failed")
	}
}

func (d *Directory) cacheKey() string {
	return d.cache.CacheKey("brands", "all")
}
