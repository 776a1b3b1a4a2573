package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/plantshop/internal/events"
	"github.com/Skotchmaster/plantshop/internal/logging"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/repo"
	"github.com/Skotchmaster/plantshop/internal/transport"
	"github.com/Skotchmaster/plantshop/internal/util"
)

// PlantIndex is the full-text side of the catalog.
type PlantIndex interface {
	IndexPlant(ctx context.Context, p *models.Plant) error
	DeletePlant(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Plant, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Events *events.Producer
	// Index is optional; without it search falls back to a name match.
	Index PlantIndex
}

type PlantQuery struct {
	Search    string
	Category  string
	NurseryID uint
	// Page and Size are optional; both zero returns every match.
	Page int
	Size int
}

func (s *CatalogService) ListPlants(ctx context.Context, q PlantQuery) ([]models.Plant, int64, error) {
	f := repo.PlantFilter{
		Search:    q.Search,
		Category:  models.Category(strings.ToLower(strings.TrimSpace(q.Category))),
		NurseryID: q.NurseryID,
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown category %q", ErrValidation, q.Category)
	}
	if q.Page > 0 || q.Size > 0 {
		f.Offset, f.Limit = util.Calculate(q.Page, q.Size)
	}
	return s.Repo.ListPlants(ctx, f)
}

func (s *CatalogService) GetPlant(ctx context.Context, id uint) (*models.Plant, error) {
	p, err := s.Repo.GetPlant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: plant %d", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) CreatePlant(ctx context.Context, actor models.Actor, req transport.CreatePlantRequest) (*models.Plant, error) {
	if !actor.IsNursery() {
		return nil, fmt.Errorf("%w: only nurseries can list plants", ErrForbidden)
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	p := models.Plant{
		Name:           strings.TrimSpace(req.Name),
		ScientificName: strings.TrimSpace(req.ScientificName),
		Category:       models.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Description:    req.Description,
		Price:          price,
		Stock:          req.Stock,
		Light:          req.Light,
		Water:          req.Water,
		Temperature:    req.Temperature,
		ImageURL:       req.ImageURL,
		NurseryID:      actor.ID,
	}
	if err := validatePlant(&p); err != nil {
		return nil, err
	}

	if err := s.Repo.CreatePlant(ctx, &p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.TypePlantCreated, &p)
	return &p, nil
}

func (s *CatalogService) PatchPlant(ctx context.Context, actor models.Actor, id uint, req transport.PatchPlantRequest) (*models.Plant, error) {
	p, err := s.ownedPlant(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.ScientificName != nil {
		p.ScientificName = strings.TrimSpace(*req.ScientificName)
	}
	if req.Category != nil {
		p.Category = models.Category(strings.ToLower(strings.TrimSpace(*req.Category)))
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		p.Price = price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Light != nil {
		p.Light = *req.Light
	}
	if req.Water != nil {
		p.Water = *req.Water
	}
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if err := validatePlant(p); err != nil {
		return nil, err
	}

	if err := s.Repo.SavePlant(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.TypePlantUpdated, p)
	return p, nil
}

func (s *CatalogService) DeletePlant(ctx context.Context, actor models.Actor, id uint) error {
	p, err := s.ownedPlant(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeletePlant(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, events.TypePlantDeleted, p)
	return nil
}

// SearchPlants prefers the search index and degrades to a substring match on name.
func (s *CatalogService) SearchPlants(ctx context.Context, query string, page, size int) ([]models.Plant, int64, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, fmt.Errorf("%w: query required", ErrValidation)
	}
	from, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, plants, err := s.Index.Search(ctx, query, from, limit)
		if err == nil {
			return plants, total, nil
		}
		l.Warn("search_index_unavailable", "error", err)
	}
	return s.Repo.ListPlants(ctx, repo.PlantFilter{Search: query, Offset: from, Limit: limit})
}

func (s *CatalogService) ownedPlant(ctx context.Context, actor models.Actor, id uint) (*models.Plant, error) {
	if !actor.IsNursery() {
		return nil, fmt.Errorf("%w: only nurseries can manage plants", ErrForbidden)
	}
	p, err := s.GetPlant(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.NurseryID != actor.ID {
		return nil, fmt.Errorf("%w: plant %d belongs to another nursery", ErrForbidden, id)
	}
	return p, nil
}

// afterWrite keeps the index and the event stream in step; both are best effort.
func (s *CatalogService) afterWrite(ctx context.Context, kind string, p *models.Plant) {
	l := logging.FromContext(ctx).With("svc", "catalog", "plant_id", p.ID)

	if s.Index != nil {
		var err error
		if kind == events.TypePlantDeleted {
			err = s.Index.DeletePlant(ctx, p.ID)
		} else {
			err = s.Index.IndexPlant(ctx, p)
		}
		if err != nil {
			l.Warn("index_failed", "kind", kind, "error", err)
		}
	}

	if err := s.Events.PublishEvent(ctx, events.TopicPlants, fmt.Sprint(p.ID), events.PlantChanged{
		Type:      kind,
		PlantID:   p.ID,
		NurseryID: p.NurseryID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		At:        time.Now().UTC(),
	}); err != nil {
		l.Warn("publish_failed", "topic", events.TopicPlants, "error", err)
	}
}

func parsePrice(a transport.Amount) (decimal.Decimal, error) {
	price, err := a.Decimal()
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid price %q", ErrValidation, string(a))
	}
	return price, nil
}

func validatePlant(p *models.Plant) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name required", ErrValidation)
	case !p.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrValidation, p.Category)
	case !p.Price.IsPositive():
		return fmt.Errorf("%w: price must be > 0", ErrValidation)
	case p.Price.Exponent() < -2 && !p.Price.Equal(p.Price.Round(2)):
		return fmt.Errorf("%w: price has more than two decimals", ErrValidation)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	return nil
}
