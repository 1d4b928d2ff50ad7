package service

import (
	"errors"
	"testing"
	"tradebot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(m *fakeMessenger) *Publisher {
	return &Publisher{
		messenger:           m,
		suggestionChannelID: "suggestions",
		reviewChannelID:     "reviews",
		voteEmoji:           "👍",
		scanLimit:           100,
	}
}

func TestPublisher_PublishSuggestionVotes(t *testing.T) {
	ref := domain.MessageRef{ChannelID: "suggestions", MessageID: "s1"}

	tests := []struct {
		name     string
		message  domain.RenderedMessage
		count    int
		wantEdit bool
	}{
		{
			name: "updates changed count",
			message: domain.RenderedMessage{ID: "s1", Kind: domain.KindSuggestion, Author: "a", Text: "t",
				Fields: map[string]string{VotesField: "1"}},
			count:    4,
			wantEdit: true,
		},
		{
			name: "skips unchanged count",
			message: domain.RenderedMessage{ID: "s1", Kind: domain.KindSuggestion, Author: "a", Text: "t",
				Fields: map[string]string{VotesField: "4"}},
			count: 4,
		},
		{
			name:    "ignores other posts",
			message: domain.RenderedMessage{ID: "s1", Kind: domain.KindNone, Text: "chat"},
			count:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeMessenger()
			m.messages["suggestions"] = []domain.RenderedMessage{tt.message}
			m.reactCnt = tt.count
			p := newTestPublisher(m)

			err := p.PublishSuggestionVotes(t.Context(), ref)

			require.NoError(t, err)
			edited, ok := m.edits[ref]
			assert.Equal(t, tt.wantEdit, ok)
			if tt.wantEdit {
				v, _ := edited.FieldValue(VotesField)
				assert.Equal(t, "4", v)
				assert.Equal(t, "a", edited.Author)
			}
		})
	}
}

func TestPublisher_HandleReaction_Filters(t *testing.T) {
	m := newFakeMessenger()
	m.fetchErr = errors.New("should not be called")
	p := newTestPublisher(m)

	require.NoError(t, p.HandleReaction(t.Context(), domain.ReactionEvent{ChannelID: "other", Emoji: "👍"}))
	require.NoError(t, p.HandleReaction(t.Context(), domain.ReactionEvent{ChannelID: "suggestions", Emoji: "🎉"}))

	err := p.HandleReaction(t.Context(), domain.ReactionEvent{ChannelID: "suggestions", MessageID: "x", Emoji: "👍"})
	require.ErrorIs(t, err, domain.ErrExternalCollaborator)
}

func TestPublisher_TopSuggestions(t *testing.T) {
	m := newFakeMessenger()
	m.messages["suggestions"] = []domain.RenderedMessage{
		{ID: "a", Kind: domain.KindSuggestion, Author: "x", Text: "one", Reactions: map[string]int{"👍": 1}},
		{ID: "b", Kind: domain.KindSuggestion, Author: "y", Text: "two", Reactions: map[string]int{"👍": 5}},
	}
	p := newTestPublisher(m)

	r, err := p.TopSuggestions(t.Context())

	require.NoError(t, err)
	require.Len(t, r.Entries, 2)
	assert.Equal(t, "b", r.Entries[0].MessageID)
}

func TestPublisher_TopReviews_FetchError(t *testing.T) {
	m := newFakeMessenger()
	m.fetchErr = errors.New("missing access")
	p := newTestPublisher(m)

	_, err := p.TopReviews(t.Context())

	require.ErrorIs(t, err, domain.ErrExternalCollaborator)
}
