package mysql

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Save(ctx context.Context, u *domain.User) error {
	result := r.db.WithContext(ctx).Create(u)
	if result.Error != nil {
		log.Printf("user save error: %v", result.Error)
		return result.Error
	}

	if u.ID == 0 {
		log.Printf("WARNING: user saved but ID is still 0. Rows affected: %d", result.RowsAffected)
		return errors.New("failed to assign user ID")
	}

	log.Printf("user %s saved with ID: %d", u.Username, u.ID)
	return nil
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindByUsername error: %v", err)
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		log.Printf("UpdatePasswordHash error: %v", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}
