package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Skotchmaster/rocketshoes/internal/catalog/repo"
	"github.com/Skotchmaster/rocketshoes/internal/models"
)

var ErrValidation = errors.New("validation")

// Searcher is a full-text product index.
type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Repo *repo.GormRepo
	// Optional; the repository's title match is used when nil.
	Search Searcher
}

func (s *CatalogService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("product id must be positive: %w", ErrValidation)
	}
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) GetStock(ctx context.Context, id int) (*models.Stock, error) {
	if id <= 0 {
		return nil, fmt.Errorf("product id must be positive: %w", ErrValidation)
	}
	return s.Repo.GetStock(ctx, id)
}

func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query must not be empty: %w", ErrValidation)
	}
	if s.Search != nil {
		return s.Search.Search(ctx, q, offset, limit)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

// SeedFile is the layout of the catalog seed document.
type SeedFile struct {
	Products []models.Product `json:"products"`
	Stock    []models.Stock   `json:"stock"`
}

func (s *CatalogService) SeedFromFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}
	for i := range seed.Stock {
		if seed.Stock[i].Amount < 0 {
			return 0, fmt.Errorf("stock for product %d is negative: %w", seed.Stock[i].ID, ErrValidation)
		}
	}

	if err := s.Repo.Seed(ctx, seed.Products, seed.Stock); err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	return len(seed.Products), nil
}
