// Package ownership keeps a user's owned (inventory) and desired (wishlist)
// paints mutually exclusive and the wishlist densely ranked.
package ownership

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/pagination"
	"github.com/angelmondragon/paintref-backend/pkg/redis"
	"github.com/angelmondragon/paintref-backend/pkg/validators"
	"gorm.io/gorm"
)

const wishlistLockScope = "wishlist"

// Service exposes the owned/desired state machine and its read models.
type Service interface {
	SetOwned(ctx context.Context, input SetOwnedInput) (*SetOwnedResult, error)
	UpdateOwned(ctx context.Context, userID, inventoryID string, input UpdateOwnedInput) (*models.InventoryEntry, error)
	ClearOwned(ctx context.Context, userID, inventoryID string) error
	SetDesired(ctx context.Context, input SetDesiredInput) (*SetDesiredResult, error)
	UpdateDesired(ctx context.Context, userID, entryID string, input UpdateDesiredInput) (*models.WishlistEntry, error)
	ClearDesired(ctx context.Context, userID, entryID string) error
	ReorderWishlist(ctx context.Context, userID, entryID string, newPriority int) (*models.WishlistEntry, error)
	ListInventory(ctx context.Context, userID string, filters InventoryFilters, limit, page int) (pagination.Result[InventoryItem], error)
	GetUserWishlist(ctx context.Context, userID string, filters WishlistFilters) (*WishlistResult, error)
	PaintStatus(ctx context.Context, userID, brandIDOrName, paintID string) (*PaintStatus, error)
	PaintUsage(ctx context.Context, userID, brandID, paintID string) (*PaintUsage, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type brandDirectory interface {
	All(ctx context.Context) (map[string]models.Brand, error)
	List(ctx context.Context) ([]models.Brand, error)
	Get(ctx context.Context, id string) (*models.Brand, error)
	Resolve(ctx context.Context, idOrName string) (*models.Brand, error)
}

type paintFinder interface {
	FindByID(ctx context.Context, brandID, paintID string) (*models.Paint, error)
	FindByKeys(ctx context.Context, keys []models.PaintKey) (map[models.PaintKey]models.Paint, error)
}

type userLocker interface {
	Acquire(ctx context.Context, key string) (*redis.Lease, error)
}

// PaintAddedNotifier is told, without waiting, that a user added a paint.
type PaintAddedNotifier interface {
	PaintAdded(ctx context.Context, userID string)
}

// ServiceParams groups dependencies for the ownership service. Palettes,
// Locker, Notifier and Logger are optional.
type ServiceParams struct {
	Repo     *Repository
	DB       *db.Client
	Users    userFinder
	Brands   brandDirectory
	Paints   paintFinder
	Palettes paints.PaletteIndex
	Locker   userLocker
	Notifier PaintAddedNotifier
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	users    userFinder
	brands   brandDirectory
	paints   paintFinder
	palettes paints.PaletteIndex
	locker   userLocker
	notifier PaintAddedNotifier
	logg     *logger.Logger
}

// NewService constructs the ownership service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ownership repository required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user finder required")
	case params.Brands == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand directory required")
	case params.Paints == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint finder required")
	}
	return &service{
		repo:     params.Repo,
		dbClient: params.DB,
		users:    params.Users,
		brands:   params.Brands,
		paints:   params.Paints,
		palettes: params.Palettes,
		locker:   params.Locker,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

// SetOwned moves a paint into the user's inventory. Any wishlist row for the
// paint is removed and the remaining ranks are compacted. An existing
// inventory row is updated in place.
func (s *service) SetOwned(ctx context.Context, input SetOwnedInput) (*SetOwnedResult, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if err := s.ensureTriple(ctx, input.UserID, input.BrandID, input.PaintID); err != nil {
		return nil, err
	}

	result := &SetOwnedResult{}
	err := s.withUserLock(ctx, input.UserID, func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)

			desired, err := txRepo.FindWishlistByTriple(ctx, input.UserID, input.BrandID, input.PaintID)
			if err != nil {
				return err
			}
			if desired != nil {
				if err := txRepo.DeleteWishlist(ctx, desired.ID); err != nil {
					return err
				}
				if !desired.Deleted && desired.Priority > 0 {
					if err := compact(ctx, txRepo, input.UserID); err != nil {
						return err
					}
				}
			}

			owned, err := txRepo.FindInventoryByTriple(ctx, input.UserID, input.BrandID, input.PaintID)
			if err != nil {
				return err
			}
			if owned != nil {
				if err := txRepo.UpdateInventory(ctx, owned.ID, map[string]any{
					"quantity": input.Quantity,
					"notes":    input.Notes,
				}); err != nil {
					return err
				}
				owned, err = txRepo.FindInventory(ctx, owned.ID)
				if err != nil {
					return err
				}
				result.Entry = *owned
				return nil
			}

			entry := &models.InventoryEntry{
				UserID:   input.UserID,
				BrandID:  input.BrandID,
				PaintID:  input.PaintID,
				Quantity: input.Quantity,
				Notes:    input.Notes,
			}
			if err := txRepo.CreateInventory(ctx, entry); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "paint already in inventory")
				}
				return err
			}
			result.Entry = *entry
			result.Created = true
			return nil
		})
	})
	if err != nil {
		return nil, asDependency(err, "set owned")
	}
	if result.Created {
		s.notifyPaintAdded(ctx, input.UserID)
	}
	return result, nil
}

// UpdateOwned edits quantity or notes. Only the owner or an admin may edit.
func (s *service) UpdateOwned(ctx context.Context, userID, inventoryID string, input UpdateOwnedInput) (*models.InventoryEntry, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	entry, err := s.loadManagedInventory(ctx, userID, inventoryID, "update")
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if input.Quantity != nil {
		updates["quantity"] = *input.Quantity
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if len(updates) == 0 {
		return entry, nil
	}
	if err := s.repo.UpdateInventory(ctx, inventoryID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory entry")
	}
	updated, err := s.repo.FindInventory(ctx, inventoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory entry")
	}
	return updated, nil
}

// ClearOwned hard-deletes an inventory entry. Only the owner or an admin may delete.
func (s *service) ClearOwned(ctx context.Context, userID, inventoryID string) error {
	if _, err := s.loadManagedInventory(ctx, userID, inventoryID, "delete"); err != nil {
		return err
	}
	if err := s.repo.DeleteInventory(ctx, inventoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inventory entry")
	}
	return nil
}

// SetDesired adds a paint to the user's wishlist, removing it from the
// inventory. A soft-deleted row for the paint is reactivated with the same id.
func (s *service) SetDesired(ctx context.Context, input SetDesiredInput) (*SetDesiredResult, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if input.Priority < PriorityUnranked {
		return nil, invalidPriority(input.Priority)
	}
	if err := s.ensureTriple(ctx, input.UserID, input.BrandID, input.PaintID); err != nil {
		return nil, err
	}

	result := &SetDesiredResult{}
	err := s.withUserLock(ctx, input.UserID, func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)

			if _, err := txRepo.DeleteInventoryByTriple(ctx, input.UserID, input.BrandID, input.PaintID); err != nil {
				return err
			}

			existing, err := txRepo.FindWishlistByTriple(ctx, input.UserID, input.BrandID, input.PaintID)
			if err != nil {
				return err
			}
			if existing != nil && !existing.Deleted {
				return pkgerrors.New(pkgerrors.CodeConflict, "paint is already in the wishlist")
			}

			ranked, err := txRepo.ListRanked(ctx, input.UserID)
			if err != nil {
				return err
			}
			pos, ok := resolvePosition(input.Priority, len(ranked))
			if !ok {
				return invalidPriority(input.Priority)
			}

			var entryID string
			if existing != nil {
				if err := txRepo.UpdateWishlist(ctx, existing.ID, map[string]any{
					"type":     input.Type,
					"priority": 0,
					"deleted":  false,
				}); err != nil {
					return err
				}
				entryID = existing.ID
				result.Restored = true
			} else {
				entry := &models.WishlistEntry{
					UserID:  input.UserID,
					BrandID: input.BrandID,
					PaintID: input.PaintID,
					Type:    input.Type,
				}
				if err := txRepo.CreateWishlist(ctx, entry); err != nil {
					if db.IsUniqueViolation(err, "") {
						return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "paint is already in the wishlist")
					}
					return err
				}
				entryID = entry.ID
			}

			if pos > 0 {
				order, current := without(ranked, entryID)
				current[entryID] = 0
				if err := applyRanks(ctx, txRepo, placeAt(order, entryID, pos), current); err != nil {
					return err
				}
			}

			saved, err := txRepo.FindWishlist(ctx, entryID)
			if err != nil {
				return err
			}
			result.Entry = *saved
			return nil
		})
	})
	if err != nil {
		return nil, asDependency(err, "set desired")
	}
	if !result.Restored {
		s.notifyPaintAdded(ctx, input.UserID)
	}
	return result, nil
}

// UpdateDesired changes the type of an active wishlist entry.
func (s *service) UpdateDesired(ctx context.Context, userID, entryID string, input UpdateDesiredInput) (*models.WishlistEntry, error) {
	entry, err := s.loadOwnedWishlist(ctx, s.repo, userID, entryID)
	if err != nil {
		return nil, err
	}
	if input.Type == nil {
		return entry, nil
	}
	if err := s.repo.UpdateWishlist(ctx, entryID, map[string]any{"type": *input.Type}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wishlist entry")
	}
	updated, err := s.repo.FindWishlist(ctx, entryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wishlist entry")
	}
	return updated, nil
}

// ClearDesired soft-deletes a wishlist entry, keeping its type and priority
// for reactivation, and compacts the remaining ranks. Clearing an entry that
// is already deleted succeeds without changes.
func (s *service) ClearDesired(ctx context.Context, userID, entryID string) error {
	err := s.withUserLock(ctx, userID, func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			entry, err := txRepo.FindWishlist(ctx, entryID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist entry not found")
				}
				return err
			}
			if entry.UserID != userID {
				return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist entry not found")
			}
			if entry.Deleted {
				return nil
			}
			if err := txRepo.UpdateWishlist(ctx, entry.ID, map[string]any{"deleted": true}); err != nil {
				return err
			}
			if entry.Priority > 0 {
				return compact(ctx, txRepo, userID)
			}
			return nil
		})
	})
	if err != nil {
		return asDependency(err, "clear desired")
	}
	return nil
}

// ReorderWishlist moves an active entry within the user's dense ranking:
// PriorityUnranked drops its rank, PriorityAppend moves it last and k moves
// it to position k.
func (s *service) ReorderWishlist(ctx context.Context, userID, entryID string, newPriority int) (*models.WishlistEntry, error) {
	if newPriority < PriorityUnranked {
		return nil, invalidPriority(newPriority)
	}
	var out *models.WishlistEntry
	err := s.withUserLock(ctx, userID, func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			entry, err := s.loadOwnedWishlist(ctx, txRepo, userID, entryID)
			if err != nil {
				return err
			}
			ranked, err := txRepo.ListRanked(ctx, userID)
			if err != nil {
				return err
			}
			order, current := without(ranked, entry.ID)
			if newPriority > len(ranked)+1 {
				return invalidPriority(newPriority)
			}
			pos, _ := resolvePosition(newPriority, len(order))
			if newPriority > len(order)+1 {
				pos = len(order) + 1
			}

			if pos == 0 {
				if entry.Priority != 0 {
					if err := txRepo.SetPriority(ctx, entry.ID, 0); err != nil {
						return err
					}
				}
				if err := applyRanks(ctx, txRepo, order, current); err != nil {
					return err
				}
			} else {
				current[entry.ID] = entry.Priority
				if err := applyRanks(ctx, txRepo, placeAt(order, entry.ID, pos), current); err != nil {
					return err
				}
			}
			if err := txRepo.UpdateWishlist(ctx, entry.ID, map[string]any{}); err != nil {
				return err
			}
			out, err = txRepo.FindWishlist(ctx, entry.ID)
			return err
		})
	})
	if err != nil {
		return nil, asDependency(err, "reorder wishlist")
	}
	return out, nil
}

// ensureTriple checks that the user, brand and paint all exist.
func (s *service) ensureTriple(ctx context.Context, userID, brandID, paintID string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.brands.Get(ctx, brandID); err != nil {
		return err
	}
	if _, err := s.paints.FindByID(ctx, brandID, paintID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "paint does not exist for the specified brand")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paint")
	}
	return nil
}

func (s *service) ensureUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return nil
}

// loadManagedInventory returns the entry when userID owns it or is an admin.
func (s *service) loadManagedInventory(ctx context.Context, userID, inventoryID, action string) (*models.InventoryEntry, error) {
	entry, err := s.repo.FindInventory(ctx, inventoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory entry")
	}
	if entry.UserID == userID {
		return entry, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil || !user.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner or an admin can "+action+" this inventory entry")
	}
	return entry, nil
}

// loadOwnedWishlist hides entries of other users and soft-deleted entries as NOT_FOUND.
func (s *service) loadOwnedWishlist(ctx context.Context, repo *Repository, userID, entryID string) (*models.WishlistEntry, error) {
	entry, err := repo.FindWishlist(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist entry")
	}
	if entry.UserID != userID || entry.Deleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist entry not found")
	}
	return entry, nil
}

// withUserLock serializes rank changes of one user across processes.
func (s *service) withUserLock(ctx context.Context, userID string, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	lease, err := s.locker.Acquire(ctx, redis.LockKey(wishlistLockScope, userID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire wishlist lock")
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "wishlist lock release failed")
		}
	}()
	return fn()
}

func (s *service) notifyPaintAdded(ctx context.Context, userID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.PaintAdded(ctx, userID)
}

func invalidPriority(p int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "priority out of range").
		WithDetails(map[string]any{"priority": p})
}

// asDependency keeps typed errors and classifies the rest as store failures.
func asDependency(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
