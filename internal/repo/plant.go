package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/plantshop/internal/models"
)

type PlantFilter struct {
	Search    string
	Category  models.Category
	NurseryID uint
	Offset    int
	// Limit <= 0 returns the whole match set.
	Limit int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *GormRepo) CreatePlant(ctx context.Context, p *models.Plant) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetPlant(ctx context.Context, id uint) (*models.Plant, error) {
	var plant models.Plant
	if err := r.DB.WithContext(ctx).First(&plant, id).Error; err != nil {
		return nil, err
	}
	return &plant, nil
}

func (r *GormRepo) ListPlants(ctx context.Context, f PlantFilter) ([]models.Plant, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Plant{})

	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(s))+"%")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.NurseryID != 0 {
		q = q.Where("nursery_id = ?", f.NurseryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at DESC").Order("id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	plants := make([]models.Plant, 0)
	if err := q.Find(&plants).Error; err != nil {
		return nil, 0, err
	}
	return plants, total, nil
}

// PlantsByIDs returns the rows keyed by id; unknown ids are simply absent.
func (r *GormRepo) PlantsByIDs(ctx context.Context, ids []uint) (map[uint]models.Plant, error) {
	var plants []models.Plant
	if len(ids) > 0 {
		if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&plants).Error; err != nil {
			return nil, err
		}
	}
	out := make(map[uint]models.Plant, len(plants))
	for _, p := range plants {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) SavePlant(ctx context.Context, p *models.Plant) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) DeletePlant(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Plant{}, id).Error
}
