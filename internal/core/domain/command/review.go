package command

import (
	"context"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

type ReviewChecker interface {
	HasReview(reviewerID string) bool
}

// Review opens the review form unless the caller already left a review.
type Review struct {
	reviews ReviewChecker
	command string
}

func NewReview(reviews ReviewChecker, command string) *Review {
	return &Review{reviews: reviews, command: command}
}

func (r *Review) GetCommand() string {
	return r.command
}

func (r *Review) Description() string {
	return "Leave a review"
}

func (r *Review) Respond(ctx context.Context, _ time.Duration, inv *domain.Invocation, reply port.Replier) error {
	if r.reviews.HasReview(inv.User.ID) {
		log.Debug().Str("userId", inv.User.ID).Msg("review already submitted")
		return reply.Notice(ctx, domain.Notice(domain.ErrDuplicate))
	}

	return reply.OpenForm(ctx, domain.NewReviewForm())
}
