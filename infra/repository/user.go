package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/user"
	historyrepo "github.com/amirasaad/paddock/pkg/repository/history"
	userrepo "github.com/amirasaad/paddock/pkg/repository/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository on db.
func NewUserRepository(db *gorm.DB) userrepo.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	m := mapUserToModel(u)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, user.ErrUserNotFound)
	}
	return mapModelToUser(&m), nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var m User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, notFoundAs(err, user.ErrUserNotFound)
	}
	return mapModelToUser(&m), nil
}

func (r *userRepository) LockAdmins(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", string(user.RoleAdmin)).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return ids, nil
}

func (r *userRepository) UpdatePrivileges(ctx context.Context, u *user.User, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ? AND version = ?", u.ID, expectedVersion).
		Updates(map[string]any{
			"role":        string(u.Role),
			"permissions": strings.Join(u.Permissions, ","),
			"version":     u.Version,
			"updated_at":  u.UpdatedAt,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := r.Get(ctx, u.ID); err != nil {
		return err
	}
	return domain.ErrVersionConflict
}

func (r *userRepository) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("role = ?", string(role)).Count(&n).Error
	return n, MapGormErrorToDomain(err)
}

func mapUserToModel(u *user.User) User {
	return User{
		ID:          u.ID,
		Username:    u.Username,
		Role:        string(u.Role),
		Permissions: strings.Join(u.Permissions, ","),
		Version:     u.Version,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func mapModelToUser(m *User) *user.User {
	perms := []string{}
	if m.Permissions != "" {
		perms = strings.Split(m.Permissions, ",")
	}
	return user.NewUserFromData(m.ID, m.Username, user.Role(m.Role), perms, m.Version, m.CreatedAt, m.UpdatedAt)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a privilege history repository on db.
func NewHistoryRepository(db *gorm.DB) historyrepo.Repository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(ctx context.Context, rec *user.ChangeRecord) error {
	m := RoleChange{
		ID:         rec.ID,
		ChangeType: string(rec.ChangeType),
		OldValue:   rec.OldValue,
		NewValue:   rec.NewValue,
		ChangerID:  rec.ChangerID,
		TargetID:   rec.TargetID,
		CreatedAt:  rec.CreatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *historyRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]*user.ChangeRecord, error) {
	var ms []RoleChange
	err := r.db.WithContext(ctx).
		Where("target_id = ?", targetID).
		Order("created_at ASC, id ASC").
		Find(&ms).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*user.ChangeRecord, 0, len(ms))
	for _, m := range ms {
		out = append(out, &user.ChangeRecord{
			ID:         m.ID,
			ChangeType: user.ChangeType(m.ChangeType),
			OldValue:   m.OldValue,
			NewValue:   m.NewValue,
			ChangerID:  m.ChangerID,
			TargetID:   m.TargetID,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
