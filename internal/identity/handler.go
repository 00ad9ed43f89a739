package identity

import (
	"net/http"

	"gridflow/internal/domain"
	"gridflow/internal/errors"
	"gridflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type Profile struct {
	ID         uint64        `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Initials   string        `json:"initials"`
	Privileged bool          `json:"privileged"`
	Slots      []domain.Slot `json:"slots"`
}

func ToProfile(a domain.Actor) Profile {
	slots := []domain.Slot(a.Slots)
	if slots == nil {
		slots = []domain.Slot{}
	}
	return Profile{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Initials:   a.Initials,
		Privileged: a.Privileged,
		Slots:      slots,
	}
}

// GetProfile returns the current actor.
func (h *Handler) GetProfile(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.Error(errors.Unauthorized("user not found", nil))
		return
	}
	c.JSON(http.StatusOK, ToProfile(actor))
}

// ListBySlot lists who can stamp the slot given in the query.
func (h *Handler) ListBySlot(c *gin.Context) {
	slot := domain.Slot(c.Query("slot"))
	if slot == "" {
		c.Error(errors.BadRequest("slot is required", nil))
		return
	}
	actors, err := h.service.ActorsForSlot(c.Request.Context(), slot)
	if err != nil {
		c.Error(err)
		return
	}
	out := make([]Profile, 0, len(actors))
	for _, a := range actors {
		out = append(out, ToProfile(a))
	}
	c.JSON(http.StatusOK, out)
}
