package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gridflow/internal/domain"
	"gridflow/internal/errors"
	"gridflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, actor *domain.Actor) error {
	return m.Called(ctx, actor).Error(0)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Actor), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint64) (*domain.Actor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Actor), args.Error(1)
}

func (m *MockRepository) FindBySlot(ctx context.Context, slot domain.Slot) ([]domain.Actor, error) {
	args := m.Called(ctx, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Actor), args.Error(1)
}

func (m *MockRepository) Deactivate(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func TestRegister_DerivesInitials(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByEmail", mock.Anything, "kim@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Actor) bool {
		return a.Initials == "KM" && a.IsActive
	})).Return(nil)

	err := NewService(repo).Register(context.Background(), &domain.Actor{Name: "kim min", Email: "kim@example.com"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRegister_Duplicate(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByEmail", mock.Anything, "kim@example.com").Return(&domain.Actor{ID: 1}, nil)

	err := NewService(repo).Register(context.Background(), &domain.Actor{Email: "kim@example.com"})
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
}

func TestGetActor_NotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, uint64(9)).Return(nil, gorm.ErrRecordNotFound)

	_, err := NewService(repo).GetActor(context.Background(), 9)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestIsAuthorizedForSlot(t *testing.T) {
	s := NewService(new(MockRepository))
	head := domain.Actor{ID: 2, IsActive: true, Slots: []domain.Slot{domain.SlotHead}}

	assert.True(t, s.IsAuthorizedForSlot(head, domain.SlotHead))
	assert.False(t, s.IsAuthorizedForSlot(head, domain.SlotDirector))
	head.IsActive = false
	assert.False(t, s.IsAuthorizedForSlot(head, domain.SlotHead))
}

func TestInitialsForSlot(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindBySlot", mock.Anything, domain.SlotHead).Return([]domain.Actor{{Initials: "HD"}, {Initials: "JK"}}, nil)
	repo.On("FindBySlot", mock.Anything, domain.SlotCEO).Return(nil, gorm.ErrInvalidDB)

	s := NewService(repo)
	assert.Equal(t, "HD,JK", s.InitialsForSlot(context.Background(), domain.SlotHead))
	assert.Equal(t, "", s.InitialsForSlot(context.Background(), domain.SlotCEO))
}

func TestGetProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zerolog.Nop()))
	h := NewHandler(NewService(new(MockRepository)))
	router.GET("/me", func(c *gin.Context) {
		c.Set(middleware.ActorKey, domain.Actor{ID: 1, Name: "Writer", Initials: "W"})
		h.GetProfile(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"Writer","email":"","initials":"W","privileged":false,"slots":[]}`, w.Body.String())
}

func TestListBySlot_RequiresSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zerolog.Nop()))
	router.GET("/actors", NewHandler(NewService(new(MockRepository))).ListBySlot)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/actors", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
