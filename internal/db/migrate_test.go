package db

import (
	"context"
	"testing"

	"gridflow/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockActorRepository struct {
	mock.Mock
}

func (m *MockActorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	return m.Called(ctx, actor).Error(0)
}

func (m *MockActorRepository) FindByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Actor), args.Error(1)
}

func (m *MockActorRepository) FindByID(ctx context.Context, id uint64) (*domain.Actor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Actor), args.Error(1)
}

func (m *MockActorRepository) FindBySlot(ctx context.Context, slot domain.Slot) ([]domain.Actor, error) {
	args := m.Called(ctx, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Actor), args.Error(1)
}

func (m *MockActorRepository) Deactivate(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func TestSeedActors_SkipsExisting(t *testing.T) {
	repo := new(MockActorRepository)
	roster := []domain.Actor{
		{Name: "Harper Head", Email: "head@example.com", Slots: []domain.Slot{domain.SlotHead}},
		{Name: "Test Writer", Email: "writer@example.com"},
	}
	repo.On("FindByEmail", mock.Anything, "head@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "writer@example.com").Return(&domain.Actor{ID: 1}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Actor) bool {
		return a.Email == "head@example.com" && a.Initials == "HH" && a.IsActive
	})).Return(nil).Once()

	SeedActors(context.Background(), repo, roster, zerolog.Nop())

	repo.AssertExpectations(t)
	assert.Empty(t, roster[0].Initials, "roster entries are copied, not modified")
}

func TestDevRosterCoversEverySlot(t *testing.T) {
	held := map[domain.Slot]bool{}
	privileged := false
	for _, a := range DevRoster {
		for _, s := range a.Slots {
			held[s] = true
		}
		privileged = privileged || a.Privileged
	}
	for _, s := range []domain.Slot{domain.SlotManager, domain.SlotHead, domain.SlotDirector, domain.SlotDesign, domain.SlotCEO, domain.SlotFinal} {
		assert.True(t, held[s], "no seeded holder for %s", s)
	}
	assert.True(t, privileged)
}
