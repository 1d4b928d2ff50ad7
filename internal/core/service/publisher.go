package service

import (
	"context"
	"fmt"
	"strconv"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Publisher computes the ranking views from rendered posts and writes aggregate counts back to
// the posts they describe.
type Publisher struct {
	messenger           port.Messenger
	suggestionChannelID string
	reviewChannelID     string
	voteEmoji           string
	scanLimit           int
}

func NewPublisher(messenger port.Messenger) *Publisher {
	return &Publisher{
		messenger:           messenger,
		suggestionChannelID: viper.GetString("discord.suggestion_channel_id"),
		reviewChannelID:     viper.GetString("discord.review_channel_id"),
		voteEmoji:           viper.GetString("suggestions.vote_emoji"),
		scanLimit:           viper.GetInt("suggestions.scan_limit"),
	}
}

// TopSuggestions ranks the most recent suggestion posts by votes.
func (p *Publisher) TopSuggestions(ctx context.Context) (domain.Ranking[domain.RankedSuggestion], error) {
	messages, err := p.messenger.FetchRecentMessages(ctx, p.suggestionChannelID, p.scanLimit)
	if err != nil {
		return domain.Ranking[domain.RankedSuggestion]{}, external(fmt.Errorf("fetching suggestions: %w", err))
	}

	return RankSuggestions(messages, p.voteEmoji), nil
}

// TopReviews ranks the most recent review posts by rating.
func (p *Publisher) TopReviews(ctx context.Context) (domain.Ranking[domain.RankedReview], error) {
	messages, err := p.messenger.FetchRecentMessages(ctx, p.reviewChannelID, p.scanLimit)
	if err != nil {
		return domain.Ranking[domain.RankedReview]{}, external(fmt.Errorf("fetching reviews: %w", err))
	}

	return RankReviews(messages), nil
}

// HandleReaction republishes the vote count when a vote on a suggestion post changes.
func (p *Publisher) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	if ev.ChannelID != p.suggestionChannelID || ev.Emoji != p.voteEmoji {
		return nil
	}

	return p.PublishSuggestionVotes(ctx, domain.MessageRef{ChannelID: ev.ChannelID, MessageID: ev.MessageID})
}

// PublishSuggestionVotes counts the votes on a suggestion post and edits the post to show them.
// Posts that are not suggestions are left alone.
func (p *Publisher) PublishSuggestionVotes(ctx context.Context, ref domain.MessageRef) error {
	l := log.With().Str("channelId", ref.ChannelID).Str("messageId", ref.MessageID).Logger()

	m, err := p.messenger.FetchMessage(ctx, ref)
	if err != nil {
		return external(fmt.Errorf("fetching suggestion: %w", err))
	}

	if m.Kind != domain.KindSuggestion {
		l.Debug().Msg("not a suggestion post, skipping vote update")
		return nil
	}

	votes, err := p.messenger.FetchReactionCount(ctx, ref, p.voteEmoji)
	if err != nil {
		return external(fmt.Errorf("counting votes: %w", err))
	}

	if m.Fields[VotesField] == strconv.Itoa(votes) {
		return nil
	}

	err = p.messenger.EditPost(ctx, ref, SuggestionPost(m.Author, m.Text, votes))
	if err != nil {
		return external(fmt.Errorf("updating vote count: %w", err))
	}

	l.Debug().Int("votes", votes).Msg("published vote count")

	return nil
}
