package identity

import (
	"context"

	"gridflow/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActorRepository defines data access for the actor roster
type ActorRepository interface {
	Create(ctx context.Context, actor *domain.Actor) error
	FindByEmail(ctx context.Context, email string) (*domain.Actor, error)
	FindByID(ctx context.Context, id uint64) (*domain.Actor, error)
	FindBySlot(ctx context.Context, slot domain.Slot) ([]domain.Actor, error)
	Deactivate(ctx context.Context, id uint64) error
}

type ActorRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ActorRepository {
	return &ActorRepositoryImpl{db: db}
}

func (r *ActorRepositoryImpl) Create(ctx context.Context, actor *domain.Actor) error {
	return r.db.WithContext(ctx).Create(actor).Error
}

func (r *ActorRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	var actor domain.Actor
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&actor).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}

func (r *ActorRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Actor, error) {
	var actor domain.Actor
	if err := r.db.WithContext(ctx).First(&actor, id).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}

// FindBySlot lists active actors holding a slot claim, ordered by id.
func (r *ActorRepositoryImpl) FindBySlot(ctx context.Context, slot domain.Slot) ([]domain.Actor, error) {
	var actors []domain.Actor
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(datatypes.JSONArrayQuery("slots").Contains(string(slot))).
		Order("id").
		Find(&actors).Error
	return actors, err
}

func (r *ActorRepositoryImpl) Deactivate(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Actor{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
