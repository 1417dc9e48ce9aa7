package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("product not found")
	ErrDuplicateSKU = errors.New("a product with this sku already exists")
)

type Store interface {
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *GormStore) Create(ctx context.Context, product *Product) error {
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSKU
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var (
	bucketProducts = []byte("products")
	bucketBySKU    = []byte("products_by_sku")
)

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketProducts, bucketBySKU} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) List(ctx context.Context) ([]Product, error) {
	products := []Product{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProducts).ForEach(func(_, value []byte) error {
			var p Product
			if err := json.Unmarshal(value, &p); err != nil {
				return fmt.Errorf("failed to decode product: %w", err)
			}
			products = append(products, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
	return products, nil
}

func (s *BoltStore) Create(ctx context.Context, product *Product) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		skus := tx.Bucket(bucketBySKU)
		if skus.Get([]byte(product.SKU)) != nil {
			return ErrDuplicateSKU
		}

		data, err := json.Marshal(product)
		if err != nil {
			return fmt.Errorf("failed to encode product: %w", err)
		}
		if err := tx.Bucket(bucketProducts).Put([]byte(product.ID), data); err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}
		return skus.Put([]byte(product.SKU), []byte(product.ID))
	})
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		products := tx.Bucket(bucketProducts)
		data := products.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		var p Product
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to decode product: %w", err)
		}
		if err := tx.Bucket(bucketBySKU).Delete([]byte(p.SKU)); err != nil {
			return err
		}
		return products.Delete([]byte(id))
	})
}
