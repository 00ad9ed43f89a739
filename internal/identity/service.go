package identity

import (
	"context"
	defError "errors"
	"strings"

	"gridflow/internal/domain"
	"gridflow/internal/errors"

	"gorm.io/gorm"
)

// Service is the identity provider consumed by the document store and the
// approval machine.
type Service interface {
	Register(ctx context.Context, actor *domain.Actor) error
	GetActor(ctx context.Context, id uint64) (*domain.Actor, error)
	ActorsForSlot(ctx context.Context, slot domain.Slot) ([]domain.Actor, error)
	InitialsForSlot(ctx context.Context, slot domain.Slot) string
	IsAuthorizedForSlot(actor domain.Actor, slot domain.Slot) bool
}

type DefaultService struct {
	repository ActorRepository
}

func NewService(repository ActorRepository) *DefaultService {
	return &DefaultService{repository: repository}
}

// Register adds an actor to the roster. Initials default to the first
// letter of each word of the name.
func (s *DefaultService) Register(ctx context.Context, actor *domain.Actor) error {
	_, err := s.repository.FindByEmail(ctx, actor.Email)
	if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		return errors.UnprocessableEntity("Actor already registered", nil)
	}
	if actor.Initials == "" {
		actor.Initials = initials(actor.Name)
	}
	actor.IsActive = true
	return s.repository.Create(ctx, actor)
}

func (s *DefaultService) GetActor(ctx context.Context, id uint64) (*domain.Actor, error) {
	actor, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Actor not found", err)
		}
		return nil, err
	}
	return actor, nil
}

func (s *DefaultService) ActorsForSlot(ctx context.Context, slot domain.Slot) ([]domain.Actor, error) {
	return s.repository.FindBySlot(ctx, slot)
}

// InitialsForSlot joins the initials of everyone who can stamp slot, for
// "waiting on" hints in notifications. Lookup failures yield "".
func (s *DefaultService) InitialsForSlot(ctx context.Context, slot domain.Slot) string {
	actors, err := s.repository.FindBySlot(ctx, slot)
	if err != nil {
		return ""
	}
	out := make([]string, 0, len(actors))
	for _, a := range actors {
		out = append(out, a.Initials)
	}
	return strings.Join(out, ",")
}

// IsAuthorizedForSlot is a claim lookup: an active actor holding the slot.
func (s *DefaultService) IsAuthorizedForSlot(actor domain.Actor, slot domain.Slot) bool {
	return actor.IsActive && actor.Holds(slot)
}

func initials(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(string([]rune(w)[:1])))
	}
	return b.String()
}
