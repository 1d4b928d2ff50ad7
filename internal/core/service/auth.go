package service

import (
	"context"
	"errors"
	"slices"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Authorizer interface {
	IsStaff(userID string) bool
	Authorize(ctx context.Context, userID string, reply port.Replier) bool
}

type StaffAuthorizer struct {
	ownerID string
	staff   []string
}

func NewAuthorizer() (*StaffAuthorizer, error) {
	var list []string

	err := viper.UnmarshalKey("discord.staff_ids", &list)
	if err != nil {
		return nil, errors.New("failed to load staff IDs")
	}

	return &StaffAuthorizer{
		ownerID: viper.GetString("discord.owner_id"),
		staff:   list,
	}, nil
}

// IsStaff reports whether userID is the owner or listed as staff.
func (a *StaffAuthorizer) IsStaff(userID string) bool {
	if userID == "" {
		return false
	}

	return userID == a.ownerID || slices.Contains(a.staff, userID)
}

const forbidden = "This is reserved for staff."

// Authorize checks IsStaff and tells the actor when they are not allowed.
func (a *StaffAuthorizer) Authorize(ctx context.Context, userID string, reply port.Replier) bool {
	if a.IsStaff(userID) {
		return true
	}

	err := reply.Notice(ctx, forbidden)
	if err != nil {
		log.Err(err).Str("userId", userID).Msg("failed to send unauthorized warning")
	}

	return false
}

// ClosePolicy returns the rule applied when closing tickets. Without restriction any actor may
// close; with it only the ticket's participants and staff may.
func (a *StaffAuthorizer) ClosePolicy(restrict bool) ClosePolicy {
	if !restrict {
		return nil
	}

	return func(ticket domain.SupportTicket, actorID string) bool {
		return ticket.IsParticipant(actorID) || a.IsStaff(actorID)
	}
}
