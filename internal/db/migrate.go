package db

import (
	"context"
	defError "errors"

	"gridflow/internal/domain"
	"gridflow/internal/identity"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(l zerolog.Logger) error {
	err := AppDb.AutoMigrate(
		&domain.Actor{},
		&domain.Document{},
	)
	if err != nil {
		return err
	}

	l.Info().Msg("Database schema migrated successfully")
	return nil
}

// DevRoster is the actor set seeded in development: one holder per slot
// plus a privileged administrator.
var DevRoster = []domain.Actor{
	{Name: "Test Writer", Email: "writer@example.com"},
	{Name: "Morgan Manager", Email: "manager@example.com", Slots: []domain.Slot{domain.SlotManager}},
	{Name: "Harper Head", Email: "head@example.com", Slots: []domain.Slot{domain.SlotHead}},
	{Name: "Devon Director", Email: "director@example.com", Slots: []domain.Slot{domain.SlotDirector}},
	{Name: "Dana Design", Email: "design@example.com", Slots: []domain.Slot{domain.SlotDesign}},
	{Name: "Casey Chief", Email: "ceo@example.com", Slots: []domain.Slot{domain.SlotCEO}},
	{Name: "Alex Archive", Email: "archive@example.com", Slots: []domain.Slot{domain.SlotFinal}},
	{Name: "Root Admin", Email: "admin@example.com", Privileged: true},
}

// SeedData registers the development roster (for development only).
func SeedData(ctx context.Context, l zerolog.Logger) {
	SeedActors(ctx, identity.NewRepository(AppDb), DevRoster, l)
}

// SeedActors registers every actor of roster whose email is not taken yet.
func SeedActors(ctx context.Context, repo identity.ActorRepository, roster []domain.Actor, l zerolog.Logger) {
	service := identity.NewService(repo)
	for _, a := range roster {
		// Check if actor exists
		_, err := repo.FindByEmail(ctx, a.Email)
		if err == nil {
			l.Debug().Str("email", a.Email).Msg("Test actor already exists")
			continue
		}
		if !defError.Is(err, gorm.ErrRecordNotFound) {
			l.Warn().Err(err).Str("email", a.Email).Msg("actor lookup failed")
			continue
		}
		actor := a
		if err := service.Register(ctx, &actor); err != nil {
			l.Warn().Err(err).Str("email", a.Email).Msg("Error creating test actor")
			continue
		}
		l.Info().Str("email", actor.Email).Str("initials", actor.Initials).Msg("Created test actor")
	}
}
