package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"carparts/internal/cache"
	"carparts/internal/errors"
	"carparts/internal/model"
	"carparts/internal/repository"
	"carparts/internal/sanitize"
	"carparts/internal/storage"
)

const (
	partCacheTTL = 5 * time.Minute

	// DefaultPageSize is used when a listing does not ask for a page size.
	DefaultPageSize = 6
	// MaxPageSize caps the page size of a listing.
	MaxPageSize = 100

	imagePathPrefix = "images/"
)

var maxPrice = decimal.New(1, 8) // decimal(10,2)

// ListPartsQuery filters and pages the catalog. Nil filters are absent.
type ListPartsQuery struct {
	CarModel *string
	Name     *string
	Page     int
	PerPage  int
}

// PartPage is one page of a catalog listing.
type PartPage struct {
	Parts       []model.Part
	TotalParts  int64
	TotalPages  int
	CurrentPage int
}

// PartInput holds raw part fields. On update, nil fields keep their value.
type PartInput struct {
	Name        *string
	CarModel    *string
	Price       *string
	Description *string
}

// ImageUpload is an uploaded image file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CatalogService reads and maintains the parts catalog.
type CatalogService interface {
	ListParts(ctx context.Context, q ListPartsQuery) (*PartPage, error)
	GetPart(ctx context.Context, id uint) (*model.Part, error)
	AddPart(ctx context.Context, in PartInput, image *ImageUpload) (*model.Part, error)
	UpdatePart(ctx context.Context, id uint, in PartInput, image *ImageUpload) (*model.Part, error)
	DeletePart(ctx context.Context, id uint) error
	// SeedParts upserts parts matched by name and car model.
	SeedParts(ctx context.Context, parts []model.Part) (created, updated int, err error)
}

type catalogService struct {
	store     repository.Store
	images    storage.ImageStore
	cache     *cache.Client
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(store repository.Store, images storage.ImageStore, cache *cache.Client, sanitizer *sanitize.Sanitizer, logger *zap.Logger) CatalogService {
	return &catalogService{
		store:     store,
		images:    images,
		cache:     cache,
		sanitizer: sanitizer,
		logger:    logger.Named("catalog"),
	}
}

func (s *catalogService) cacheKey(id uint) string {
	return fmt.Sprintf("part:%d", id)
}

func (s *catalogService) ListParts(ctx context.Context, q ListPartsQuery) (*PartPage, error) {
	if q.Page < 1 {
		return nil, errors.Validation("page must be at least 1")
	}
	if q.PerPage < 1 {
		return nil, errors.Validation("per_page must be at least 1")
	}
	if q.PerPage > MaxPageSize {
		q.PerPage = MaxPageSize
	}

	carModel, ok := s.sanitizer.Optional(q.CarModel)
	if !ok {
		return nil, errors.Validation("invalid car model input")
	}
	name, ok := s.sanitizer.Optional(q.Name)
	if !ok {
		return nil, errors.Validation("invalid name input")
	}

	filter := repository.PartFilter{Page: q.Page, PageSize: q.PerPage}
	if carModel != nil {
		filter.CarModel = *carModel
	}
	if name != nil {
		filter.Name = *name
	}

	parts, total, err := s.store.Parts().List(ctx, filter)
	if err != nil {
		return nil, errors.Internal("list parts", err)
	}

	return &PartPage{
		Parts:       parts,
		TotalParts:  total,
		TotalPages:  int((total + int64(q.PerPage) - 1) / int64(q.PerPage)),
		CurrentPage: q.Page,
	}, nil
}

// GetPart retrieves a part by ID with caching.
func (s *catalogService) GetPart(ctx context.Context, id uint) (*model.Part, error) {
	var cached model.Part
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	part, err := s.store.Parts().FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrPartNotFound
		}
		return nil, errors.Internal("find part", err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), part, partCacheTTL)
	return part, nil
}

// AddPart stores the row first so the image can be named after the new id.
func (s *catalogService) AddPart(ctx context.Context, in PartInput, image *ImageUpload) (*model.Part, error) {
	name := s.cleanRequired(in.Name)
	carModel := s.cleanRequired(in.CarModel)
	description := s.cleanRequired(in.Description)
	if name == "" || carModel == "" || description == "" || in.Price == nil {
		return nil, errors.Validation("name, car model, price, and description are required")
	}
	price, err := parsePrice(*in.Price)
	if err != nil {
		return nil, err
	}
	if image == nil || image.Body == nil {
		return nil, errors.Validation("image is required")
	}
	if err := checkImage(image); err != nil {
		return nil, err
	}

	part := &model.Part{
		Name:        name,
		CarModel:    carModel,
		Price:       price,
		Description: description,
	}

	var writtenKey string
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Parts().Create(ctx, part); err != nil {
			return errors.Internal("create part", err)
		}

		key := imageKey(part.ID, image.Filename)
		if err := s.images.Save(ctx, key, image.Body, image.ContentType); err != nil {
			return errors.Internal("store image", err)
		}
		writtenKey = key

		part.Image = imagePathPrefix + key
		if err := tx.Parts().Update(ctx, part); err != nil {
			return errors.Internal("set part image", err)
		}
		return nil
	})
	if err != nil {
		if writtenKey != "" {
			s.removeImage(ctx, writtenKey)
		}
		s.logger.Error("add part failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("part added", zap.Uint("part_id", part.ID))
	return part, nil
}

func (s *catalogService) UpdatePart(ctx context.Context, id uint, in PartInput, image *ImageUpload) (*model.Part, error) {
	part, err := s.store.Parts().FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrPartNotFound
		}
		return nil, errors.Internal("find part", err)
	}

	fields := []struct {
		raw   *string
		dst   *string
		label string
	}{
		{in.Name, &part.Name, "name"},
		{in.CarModel, &part.CarModel, "car model"},
		{in.Description, &part.Description, "description"},
	}
	for _, f := range fields {
		value, ok := s.sanitizer.Optional(f.raw)
		if !ok {
			return nil, errors.Validation("invalid " + f.label)
		}
		if value != nil {
			*f.dst = *value
		}
	}
	if in.Price != nil {
		price, err := parsePrice(*in.Price)
		if err != nil {
			return nil, err
		}
		part.Price = price
	}

	var writtenKey, replacedKey string
	if image != nil && image.Body != nil {
		if err := checkImage(image); err != nil {
			return nil, err
		}
		key := imageKey(part.ID, image.Filename)
		if err := s.images.Save(ctx, key, image.Body, image.ContentType); err != nil {
			return nil, errors.Internal("store image", err)
		}
		if imagePathPrefix+key != part.Image {
			writtenKey = key
			if strings.HasPrefix(part.Image, imagePathPrefix) {
				replacedKey = strings.TrimPrefix(part.Image, imagePathPrefix)
			}
		}
		part.Image = imagePathPrefix + key
	}

	if err := s.store.Parts().Update(ctx, part); err != nil {
		if writtenKey != "" {
			s.removeImage(ctx, writtenKey)
		}
		return nil, errors.Internal("update part", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	// the row no longer points at the previous file
	if replacedKey != "" {
		s.removeImage(ctx, replacedKey)
	}

	s.logger.Info("part updated", zap.Uint("part_id", part.ID))
	return part, nil
}

// DeletePart deletes the row and then its image inside one transaction, so a
// failed image removal keeps the row.
func (s *catalogService) DeletePart(ctx context.Context, id uint) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		part, err := tx.Parts().FindByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return errors.ErrPartNotFound
			}
			return errors.Internal("find part", err)
		}

		refs, err := tx.Parts().CountOrderReferences(ctx, id)
		if err != nil {
			return errors.Internal("count part orders", err)
		}
		if refs > 0 {
			return errors.Conflict("part is referenced by existing orders")
		}

		if err := tx.Parts().Delete(ctx, id); err != nil {
			return errors.Internal("delete part", err)
		}
		if key := strings.TrimPrefix(part.Image, imagePathPrefix); key != "" {
			if err := s.images.Delete(ctx, key); err != nil {
				return errors.Internal("delete image", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.KindInternal) {
			// the image may already be gone if only the commit failed
			s.logger.Error("delete part failed", zap.Uint("part_id", id), zap.Error(err))
		}
		return err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	s.logger.Info("part deleted", zap.Uint("part_id", id))
	return nil
}

func (s *catalogService) SeedParts(ctx context.Context, parts []model.Part) (created, updated int, err error) {
	for _, p := range parts {
		filter := repository.PartFilter{Name: p.Name, CarModel: p.CarModel, Page: 1, PageSize: MaxPageSize}
		matches, _, err := s.store.Parts().List(ctx, filter)
		if err != nil {
			return created, updated, fmt.Errorf("seed part %q: %w", p.Name, err)
		}

		var existing *model.Part
		for i := range matches {
			if strings.EqualFold(matches[i].Name, p.Name) && strings.EqualFold(matches[i].CarModel, p.CarModel) {
				existing = &matches[i]
				break
			}
		}

		if existing != nil {
			existing.Price = p.Price
			existing.Description = p.Description
			if p.Image != "" {
				existing.Image = p.Image
			}
			if err := s.store.Parts().Update(ctx, existing); err != nil {
				return created, updated, fmt.Errorf("update part %d: %w", existing.ID, err)
			}
			_ = s.cache.Delete(ctx, s.cacheKey(existing.ID))
			updated++
			continue
		}

		part := p
		part.ID = 0
		if err := s.store.Parts().Create(ctx, &part); err != nil {
			return created, updated, fmt.Errorf("create part %q: %w", p.Name, err)
		}
		created++
	}
	return created, updated, nil
}

func (s *catalogService) cleanRequired(raw *string) string {
	if raw == nil {
		return ""
	}
	return s.sanitizer.Clean(strings.TrimSpace(*raw))
}

func (s *catalogService) removeImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Error("remove orphaned image failed", zap.String("key", key), zap.Error(err))
	}
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errors.Validation("invalid price")
	}
	if price.IsNegative() {
		return decimal.Zero, errors.Validation("price cannot be negative")
	}
	price = price.Round(2)
	if price.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, errors.Validation("price is too large")
	}
	return price, nil
}

func checkImage(image *ImageUpload) error {
	if !storage.AllowedFile(storage.SecureFilename(image.Filename)) {
		return errors.Validation("invalid image file")
	}
	return nil
}

func imageKey(partID uint, filename string) string {
	return fmt.Sprintf("%d_%s", partID, storage.SecureFilename(filename))
}
