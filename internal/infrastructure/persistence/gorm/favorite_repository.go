package gorm

import (
	"context"

	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/ports/outbound"
	"gorm.io/gorm"
)

// FavoriteRepository implements the favorite repository interface using GORM
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

var _ outbound.FavoriteRepository = (*FavoriteRepository)(nil)

// List returns the favorites of clientID in insertion order
func (r *FavoriteRepository) List(ctx context.Context, clientID string) ([]int64, error) {
	return listFavorites(r.db.WithContext(ctx), clientID)
}

// Update rewrites the favorites of clientID inside a transaction. Updates
// for the same client are serialized.
func (r *FavoriteRepository) Update(ctx context.Context, clientID string, fn func(*profile.Favorites) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockClient(tx, clientID); err != nil {
			return err
		}

		ids, err := listFavorites(tx, clientID)
		if err != nil {
			return err
		}

		favorites := profile.NewFavorites(ids)
		if err := fn(favorites); err != nil {
			return err
		}

		if err := tx.Where("client_id = ?", clientID).Delete(&FavoriteModel{}).Error; err != nil {
			return err
		}

		updated := favorites.IDs()
		if len(updated) == 0 {
			return nil
		}
		models := make([]FavoriteModel, 0, len(updated))
		for i, id := range updated {
			models = append(models, FavoriteModel{
				ClientID: clientID,
				RecipeID: id,
				Position: i,
			})
		}
		return tx.Create(&models).Error
	})
}

// lockClient takes a transaction scoped advisory lock on postgres. A client
// with no favorites has no rows to lock with FOR UPDATE. SQLite allows a
// single writer and needs nothing.
func lockClient(tx *gorm.DB, clientID string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "favorites:"+clientID).Error
}

func listFavorites(db *gorm.DB, clientID string) ([]int64, error) {
	ids := []int64{}
	err := db.Model(&FavoriteModel{}).
		Where("client_id = ?", clientID).
		Order("position ASC").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
