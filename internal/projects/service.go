// Package projects manages user projects: named groups of palettes, images
// and paints that an owner can publish or share with other users.
package projects

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/docstore"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/pagination"
	"github.com/angelmondragon/paintref-backend/pkg/validators"
	"gorm.io/gorm"
)

// prefixSentinel bounds a name_lower range scan to one prefix.
const prefixSentinel = "\uf8ff"

type Service interface {
	CreateProject(ctx context.Context, input CreateProjectInput) (*ProjectDTO, error)
	UpdateProject(ctx context.Context, userID, projectID string, input UpdateProjectInput) (*ProjectDTO, error)
	DeleteProject(ctx context.Context, userID, projectID string) (*DeleteResult, error)
	ListMyProjects(ctx context.Context, userID string, filters ProjectFilters, limit, page int) (pagination.Result[ProjectDTO], error)
	ListSharedProjects(ctx context.Context, userID string, limit, page int) (pagination.Result[ProjectDTO], error)
	ListPublicProjects(ctx context.Context, limit, page int) (pagination.Result[ProjectDTO], error)
	AddItem(ctx context.Context, input AddItemInput) (*AddItemResult, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
	ShareProject(ctx context.Context, input ShareInput) (*ShareResult, error)
	UnshareProject(ctx context.Context, input ShareInput) error
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type paintFinder interface {
	FindByID(ctx context.Context, brandID, paintID string) (*models.Paint, error)
}

type paletteFinder interface {
	FindByID(ctx context.Context, id string) (*models.Palette, error)
}

type imageFinder interface {
	FindImage(ctx context.Context, id string) (*models.UserColorImage, error)
}

// ServiceParams groups dependencies for the project service. Logger is
// optional.
type ServiceParams struct {
	Repo     *Repository
	DB       *db.Client
	Users    userFinder
	Paints   paintFinder
	Palettes paletteFinder
	Images   imageFinder
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	users    userFinder
	paints   paintFinder
	palettes paletteFinder
	images   imageFinder
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project repository required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user finder required")
	case params.Paints == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint finder required")
	case params.Palettes == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "palette finder required")
	case params.Images == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image finder required")
	}
	return &service{
		repo:     params.Repo,
		dbClient: params.DB,
		users:    params.Users,
		paints:   params.Paints,
		palettes: params.Palettes,
		images:   params.Images,
		logg:     params.Logger,
	}, nil
}

func (s *service) CreateProject(ctx context.Context, input CreateProjectInput) (*ProjectDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	project := &models.Project{UserID: input.UserID, Name: input.Name, Public: input.Public}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create project")
	}
	dto := newProjectDTO(*project, nil)
	return &dto, nil
}

// UpdateProject renames or publishes a project. Only its owner may change it.
func (s *service) UpdateProject(ctx context.Context, userID, projectID string, input UpdateProjectInput) (*ProjectDTO, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	project, err := s.loadOwned(ctx, s.repo, userID, projectID, "update")
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Public != nil {
		project.Public = *input.Public
	}
	if err := s.repo.Save(ctx, project); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update project")
	}
	items, err := s.itemsByProject(ctx, []string{project.ID})
	if err != nil {
		return nil, err
	}
	dto := newProjectDTO(*project, items[project.ID])
	return &dto, nil
}

// ListMyProjects pages through a user's projects. Without a name filter the
// newest come first; with one, matches are ordered by name.
func (s *service) ListMyProjects(ctx context.Context, userID string, filters ProjectFilters, limit, page int) (pagination.Result[ProjectDTO], error) {
	if strings.TrimSpace(userID) == "" {
		return pagination.Result[ProjectDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	q := docstore.Query{}.Where("userId", docstore.OpEq, userID)
	if prefix := strings.ToLower(strings.TrimSpace(filters.Name)); prefix != "" {
		q = q.Where("nameLower", docstore.OpGte, prefix).
			Where("nameLower", docstore.OpLte, prefix+prefixSentinel).
			OrderBy("nameLower", false).
			OrderBy("id", false)
	} else {
		q = q.OrderBy("createdAt", true).OrderBy("id", true)
	}
	rows, err := docstore.Paginate[models.Project](func() *gorm.DB { return s.repo.scanProjects(ctx) }, projectSchema, q, limit, page)
	if err != nil {
		return pagination.Result[ProjectDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list projects")
	}
	return s.withItems(ctx, rows)
}

// ListPublicProjects pages through every public project, newest first.
func (s *service) ListPublicProjects(ctx context.Context, limit, page int) (pagination.Result[ProjectDTO], error) {
	q := docstore.Query{}.
		Where("public", docstore.OpEq, true).
		OrderBy("createdAt", true).
		OrderBy("id", true)
	rows, err := docstore.Paginate[models.Project](func() *gorm.DB { return s.repo.scanProjects(ctx) }, projectSchema, q, limit, page)
	if err != nil {
		return pagination.Result[ProjectDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list public projects")
	}
	return s.withItems(ctx, rows)
}

// ListSharedProjects pages through the projects shared with a user, most
// recently shared first.
func (s *service) ListSharedProjects(ctx context.Context, userID string, limit, page int) (pagination.Result[ProjectDTO], error) {
	if strings.TrimSpace(userID) == "" {
		return pagination.Result[ProjectDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	q := docstore.Query{}.
		Where("userId", docstore.OpEq, userID).
		OrderBy("createdAt", true).
		OrderBy("id", true)
	shares, err := docstore.Paginate[models.ProjectShare](func() *gorm.DB { return s.repo.scanShares(ctx) }, shareSchema, q, limit, page)
	if err != nil {
		return pagination.Result[ProjectDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shared projects")
	}
	ids := make([]string, 0, len(shares.Items))
	for _, sh := range shares.Items {
		ids = append(ids, sh.ProjectID)
	}
	byID, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return pagination.Result[ProjectDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shared projects")
	}
	items, err := s.itemsByProject(ctx, ids)
	if err != nil {
		return pagination.Result[ProjectDTO]{}, err
	}
	out := make([]ProjectDTO, 0, len(shares.Items))
	for _, sh := range shares.Items {
		p, ok := byID[sh.ProjectID]
		if !ok {
			continue
		}
		out = append(out, newProjectDTO(p, items[p.ID]))
	}
	return pagination.Result[ProjectDTO]{
		Items:       out,
		CurrentPage: shares.CurrentPage,
		TotalPages:  shares.TotalPages,
		Total:       shares.Total,
		Limit:       shares.Limit,
	}, nil
}

// AddItem points a project at an existing palette, image or paint. Adding a
// reference the project already holds returns the existing item.
func (s *service) AddItem(ctx context.Context, input AddItemInput) (*AddItemResult, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if input.Kind != models.ProjectItemPaint {
		input.BrandID = ""
	} else if strings.TrimSpace(input.BrandID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand id is required to add a paint")
	}
	if _, err := s.loadOwned(ctx, s.repo, input.UserID, input.ProjectID, "update"); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItemByRef(ctx, input.ProjectID, input.Kind, input.RefID, input.BrandID)
	switch {
	case err == nil:
		return &AddItemResult{Item: *existing}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project item")
	}
	if err := s.ensureReference(ctx, input); err != nil {
		return nil, err
	}

	item := &models.ProjectItem{
		ProjectID: input.ProjectID,
		UserID:    input.UserID,
		Kind:      input.Kind,
		RefID:     input.RefID,
		BrandID:   input.BrandID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item already added to project")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add project item")
	}
	return &AddItemResult{Item: *item, Created: true}, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(itemID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "project item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project item")
	}
	if item.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can update the project")
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove project item")
	}
	return nil
}

// ShareProject grants another user access to a project. Only the owner may
// share, and sharing twice returns the existing record.
func (s *service) ShareProject(ctx context.Context, input ShareInput) (*ShareResult, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if input.ActorID == input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a project cannot be shared with its owner")
	}
	if _, err := s.loadOwned(ctx, s.repo, input.ActorID, input.ProjectID, "share"); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindShare(ctx, input.ProjectID, input.UserID)
	switch {
	case err == nil:
		return &ShareResult{Share: *existing}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project share")
	}
	share := &models.ProjectShare{ProjectID: input.ProjectID, UserID: input.UserID, SharedBy: input.ActorID}
	if err := s.repo.CreateShare(ctx, share); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "project already shared with user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "share project")
	}
	return &ShareResult{Share: *share, Created: true}, nil
}

// UnshareProject revokes a share. The owner or the recipient may revoke it;
// revoking a share that does not exist succeeds.
func (s *service) UnshareProject(ctx context.Context, input ShareInput) error {
	if err := validators.Struct(input); err != nil {
		return err
	}
	project, err := s.load(ctx, s.repo, input.ProjectID)
	if err != nil {
		return err
	}
	if input.ActorID != project.UserID && input.ActorID != input.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "user can not unshare this project")
	}
	share, err := s.repo.FindShare(ctx, input.ProjectID, input.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project share")
	}
	if err := s.repo.DeleteShare(ctx, share.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unshare project")
	}
	return nil
}

func (s *service) ensureReference(ctx context.Context, input AddItemInput) error {
	var err error
	var what string
	switch input.Kind {
	case models.ProjectItemPaint:
		_, err = s.paints.FindByID(ctx, input.BrandID, input.RefID)
		what = "paint"
	case models.ProjectItemPalette:
		_, err = s.palettes.FindByID(ctx, input.RefID)
		what = "palette"
	case models.ProjectItemImage:
		_, err = s.images.FindImage(ctx, input.RefID)
		what = "image"
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		details := map[string]any{"table": input.Kind, "table_id": input.RefID}
		if input.BrandID != "" {
			details["brand_id"] = input.BrandID
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}

func (s *service) ensureUser(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, projectID string) (*models.Project, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id is required")
	}
	project, err := repo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	return project, nil
}

func (s *service) loadOwned(ctx context.Context, repo *Repository, userID, projectID, action string) (*models.Project, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	project, err := s.load(ctx, repo, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user can not "+action+" this project")
	}
	return project, nil
}

func (s *service) withItems(ctx context.Context, rows pagination.Result[models.Project]) (pagination.Result[ProjectDTO], error) {
	ids := make([]string, 0, len(rows.Items))
	for _, p := range rows.Items {
		ids = append(ids, p.ID)
	}
	items, err := s.itemsByProject(ctx, ids)
	if err != nil {
		return pagination.Result[ProjectDTO]{}, err
	}
	return pagination.Map(rows, func(p models.Project) ProjectDTO {
		return newProjectDTO(p, items[p.ID])
	}), nil
}

func (s *service) itemsByProject(ctx context.Context, projectIDs []string) (map[string][]ItemDTO, error) {
	rows, err := s.repo.ItemsFor(ctx, projectIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project items")
	}
	out := make(map[string][]ItemDTO, len(projectIDs))
	for _, item := range rows {
		out[item.ProjectID] = append(out[item.ProjectID], newItemDTO(item))
	}
	return out, nil
}
