package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"go.uber.org/zap"
)

var ErrValidation = errors.New("name and sku are required")

type ProductInput struct {
	Name  string  `json:"name"`
	SKU   string  `json:"sku"`
	Stock int     `json:"stock"`
	Cost  float64 `json:"cost"`
	Image string  `json:"image"`
}

type Service struct {
	store  Store
	logger *logging.Service
	now    func() time.Time
}

func NewService(store Store, logger *logging.Service) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.store.List(ctx)
}

func (s *Service) Add(ctx context.Context, userID string, input ProductInput) (*Product, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" || sku == "" || input.Stock < 0 || input.Cost < 0 {
		return nil, ErrValidation
	}

	product := &Product{
		ID:        uuid.New().String(),
		Name:      name,
		SKU:       sku,
		Stock:     input.Stock,
		Cost:      input.Cost,
		Image:     strings.TrimSpace(input.Image),
		CreatedBy: userID,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product added", zap.String("user_id", userID), zap.String("product_id", product.ID), zap.String("sku", sku))
	return product, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("product deleted", zap.String("user_id", userID), zap.String("product_id", id))
	return nil
}
