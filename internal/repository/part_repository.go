package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"carparts/internal/model"
)

// PartFilter narrows and pages a part listing. Empty filters match everything.
type PartFilter struct {
	CarModel string
	Name     string
	Page     int // 1-based
	PageSize int
}

// PartRepository defines catalog persistence operations.
type PartRepository interface {
	List(ctx context.Context, filter PartFilter) ([]model.Part, int64, error)
	FindByID(ctx context.Context, id uint) (*model.Part, error)
	// FindByIDs returns the existing parts among ids, in the order of ids.
	FindByIDs(ctx context.Context, ids []uint) ([]model.Part, error)
	Create(ctx context.Context, part *model.Part) error
	Update(ctx context.Context, part *model.Part) error
	Delete(ctx context.Context, id uint) error
	CountOrderReferences(ctx context.Context, id uint) (int64, error)
}

type partRepository struct {
	db *gorm.DB
}

// NewPartRepository builds a GORM-backed repository.
func NewPartRepository(db *gorm.DB) PartRepository {
	return &partRepository{db: db}
}

func (r *partRepository) List(ctx context.Context, filter PartFilter) ([]model.Part, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Part{})
	if filter.CarModel != "" {
		q = q.Where("LOWER(car_model) LIKE ?", containsPattern(filter.CarModel))
	}
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", containsPattern(filter.Name))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	parts := []model.Part{}
	offset := (filter.Page - 1) * filter.PageSize
	if err := q.Order("id").Offset(offset).Limit(filter.PageSize).Find(&parts).Error; err != nil {
		return nil, 0, err
	}
	return parts, total, nil
}

func (r *partRepository) FindByID(ctx context.Context, id uint) (*model.Part, error) {
	var part model.Part
	if err := r.db.WithContext(ctx).First(&part, id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

func (r *partRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Part, error) {
	if len(ids) == 0 {
		return []model.Part{}, nil
	}
	var found []model.Part
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]model.Part, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	parts := make([]model.Part, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			parts = append(parts, p)
		}
	}
	return parts, nil
}

func (r *partRepository) Create(ctx context.Context, part *model.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *partRepository) Update(ctx context.Context, part *model.Part) error {
	return r.db.WithContext(ctx).Save(part).Error
}

// Delete removes the part, returning gorm.ErrRecordNotFound if no row matched.
func (r *partRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Part{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *partRepository) CountOrderReferences(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderPart{}).Where("part_id = ?", id).Count(&count).Error
	return count, err
}

// containsPattern builds a case-insensitive LIKE pattern matching term anywhere.
// LIKE wildcards in term are not escaped.
func containsPattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}
