package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/resume-analyzer/internal/models"
)

var ErrRoleNotFound = errors.New("role not found")

type RoleRepository interface {
	FindAll(ctx context.Context) ([]models.Role, error)
	FindByID(ctx context.Context, id string) (*models.Role, error)
	// Seed inserts roles that are not stored yet; existing rows are left alone.
	Seed(ctx context.Context, roles []models.Role) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// FindAll implements RoleRepository.
func (r *roleRepository) FindAll(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// FindByID implements RoleRepository.
func (r *roleRepository) FindByID(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, id)
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}
	return &role, nil
}

// Seed implements RoleRepository.
func (r *roleRepository) Seed(ctx context.Context, roles []models.Role) error {
	if len(roles) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&roles).Error
	if err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	return nil
}
