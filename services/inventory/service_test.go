package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/backoffice/testutils"
)

func TestService(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"gorm": func(t *testing.T) Store {
			return NewGormStore(testutils.SetupTestDB(t, Models()...))
		},
		"bolt": func(t *testing.T) Store {
			store, err := NewBoltStore(testutils.SetupTestBolt(t))
			require.NoError(t, err)
			return store
		},
	}

	for name, factory := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := testutils.NewClock(time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
			newService := func(t *testing.T) *Service {
				service := NewService(factory(t), nil)
				service.now = func() time.Time {
					clock.Advance(time.Second)
					return clock.Now()
				}
				return service
			}

			t.Run("empty list", func(t *testing.T) {
				products, err := newService(t).List(ctx)
				require.NoError(t, err)
				assert.Empty(t, products)
			})

			t.Run("add and list in insertion order", func(t *testing.T) {
				service := newService(t)

				first, err := service.Add(ctx, "USER-1", ProductInput{Name: " Mug ", SKU: "MUG-1", Stock: 4, Cost: 2.5})
				require.NoError(t, err)
				assert.Equal(t, "Mug", first.Name)
				assert.Equal(t, "USER-1", first.CreatedBy)
				assert.NotEmpty(t, first.ID)

				_, err = service.Add(ctx, "USER-1", ProductInput{Name: "Cap", SKU: "CAP-1"})
				require.NoError(t, err)

				products, err := service.List(ctx)
				require.NoError(t, err)
				require.Len(t, products, 2)
				assert.Equal(t, "MUG-1", products[0].SKU)
				assert.Equal(t, 4, products[0].Stock)
				assert.Equal(t, "CAP-1", products[1].SKU)
			})

			t.Run("validation", func(t *testing.T) {
				service := newService(t)
				inputs := []ProductInput{
					{SKU: "X"},
					{Name: "X"},
					{Name: "X", SKU: "X", Stock: -1},
					{Name: "X", SKU: "X", Cost: -0.5},
				}
				for _, input := range inputs {
					_, err := service.Add(ctx, "USER-1", input)
					assert.ErrorIs(t, err, ErrValidation)
				}
			})

			t.Run("duplicate sku", func(t *testing.T) {
				service := newService(t)
				_, err := service.Add(ctx, "USER-1", ProductInput{Name: "Mug", SKU: "MUG-1"})
				require.NoError(t, err)

				_, err = service.Add(ctx, "USER-2", ProductInput{Name: "Other", SKU: "MUG-1"})
				assert.ErrorIs(t, err, ErrDuplicateSKU)
			})

			t.Run("delete", func(t *testing.T) {
				service := newService(t)
				product, err := service.Add(ctx, "USER-1", ProductInput{Name: "Mug", SKU: "MUG-1"})
				require.NoError(t, err)

				require.NoError(t, service.Delete(ctx, "USER-1", product.ID))
				assert.ErrorIs(t, service.Delete(ctx, "USER-1", product.ID), ErrNotFound)

				_, err = service.Add(ctx, "USER-1", ProductInput{Name: "Mug again", SKU: "MUG-1"})
				assert.NoError(t, err)
			})
		})
	}
}
