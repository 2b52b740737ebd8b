package repositories

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"alfredoptarigan/resume-analyzer/internal/models"
)

type memoryRoleRepository struct {
	mu    sync.RWMutex
	roles map[string]models.Role
}

// NewMemoryRoleRepository returns a process-local catalog, pre-seeded with
// the given roles.
func NewMemoryRoleRepository(roles ...models.Role) RoleRepository {
	r := &memoryRoleRepository{roles: make(map[string]models.Role, len(roles))}
	_ = r.Seed(context.Background(), roles)
	return r
}

func (r *memoryRoleRepository) FindAll(_ context.Context) ([]models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]models.Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, cloneRole(role))
	}
	slices.SortFunc(roles, func(a, b models.Role) int {
		return strings.Compare(a.Name, b.Name)
	})
	return roles, nil
}

func (r *memoryRoleRepository) FindByID(_ context.Context, id string) (*models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, id)
	}
	role = cloneRole(role)
	return &role, nil
}

func (r *memoryRoleRepository) Seed(_ context.Context, roles []models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, role := range roles {
		if _, exists := r.roles[role.ID]; exists {
			continue
		}
		role = cloneRole(role)
		role.CreatedAt, role.UpdatedAt = now, now
		r.roles[role.ID] = role
	}
	return nil
}

func cloneRole(role models.Role) models.Role {
	role.Skills = slices.Clone(role.Skills)
	return role
}
