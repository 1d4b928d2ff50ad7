package command

import (
	"context"
	"fmt"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"
	"tradebot/internal/core/service"

	"github.com/rs/zerolog/log"
)

type Ranker interface {
	TopSuggestions(ctx context.Context) (domain.Ranking[domain.RankedSuggestion], error)
	TopReviews(ctx context.Context) (domain.Ranking[domain.RankedReview], error)
}

// TopSuggestions posts the suggestion leaderboard.
type TopSuggestions struct {
	ranker  Ranker
	command string
}

func NewTopSuggestions(ranker Ranker, command string) *TopSuggestions {
	return &TopSuggestions{ranker: ranker, command: command}
}

func (t *TopSuggestions) GetCommand() string {
	return t.command
}

func (t *TopSuggestions) Description() string {
	return "Show the most voted suggestions"
}

func (t *TopSuggestions) Respond(ctx context.Context, timeout time.Duration, inv *domain.Invocation,
	reply port.Replier) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := t.ranker.TopSuggestions(ctx)
	if err != nil {
		return notifyAndReturnError(ctx, fmt.Errorf("ranking suggestions: %w", err), inv, reply)
	}

	return reply.Reply(ctx, service.FormatSuggestionRanking(r))
}

// TopReviews posts the review leaderboard.
type TopReviews struct {
	ranker  Ranker
	command string
}

func NewTopReviews(ranker Ranker, command string) *TopReviews {
	return &TopReviews{ranker: ranker, command: command}
}

func (t *TopReviews) GetCommand() string {
	return t.command
}

func (t *TopReviews) Description() string {
	return "Show the best rated reviews"
}

func (t *TopReviews) Respond(ctx context.Context, timeout time.Duration, inv *domain.Invocation,
	reply port.Replier) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := t.ranker.TopReviews(ctx)
	if err != nil {
		return notifyAndReturnError(ctx, fmt.Errorf("ranking reviews: %w", err), inv, reply)
	}

	return reply.Reply(ctx, service.FormatReviewRanking(r))
}

func notifyAndReturnError(ctx context.Context, err error, inv *domain.Invocation, reply port.Replier) error {
	if sendErr := reply.Notice(ctx, domain.Notice(err)); sendErr != nil {
		log.Error().Err(sendErr).Str("command", inv.Command).Msg("failed to report error to user")
	}
	return err
}
