package sender

import (
	"errors"
	"net/http"
	"testing"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	_ port.Messenger     = (*Discord)(nil)
	_ port.Replier       = (*InteractionReplier)(nil)
	_ port.Replier       = (*ChannelReplier)(nil)
	_ port.StaffNotifier = (*TelegramRelay)(nil)
	_ DiscordSession     = (*discordgo.Session)(nil)
)

type MockSession struct {
	mock.Mock
}

func (m *MockSession) ChannelMessageSend(channelID string, content string,
	_ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, content)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func (m *MockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend,
	_ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, data)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func (m *MockSession) ChannelMessageEditComplex(edit *discordgo.MessageEdit,
	_ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(edit)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func (m *MockSession) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	return m.Called(channelID, messageID).Error(0)
}

func (m *MockSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string,
	_ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	args := m.Called(channelID, limit)
	msgs, _ := args.Get(0).([]*discordgo.Message)
	return msgs, args.Error(1)
}

func (m *MockSession) ChannelMessage(channelID, messageID string,
	_ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, messageID)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func (m *MockSession) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	return m.Called(channelID, messageID, emojiID).Error(0)
}

func (m *MockSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	args := m.Called(recipientID)
	ch, _ := args.Get(0).(*discordgo.Channel)
	return ch, args.Error(1)
}

func (m *MockSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData,
	_ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	args := m.Called(guildID, data)
	ch, _ := args.Get(0).(*discordgo.Channel)
	return ch, args.Error(1)
}

func (m *MockSession) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	args := m.Called(channelID)
	ch, _ := args.Get(0).(*discordgo.Channel)
	return ch, args.Error(1)
}

func (m *MockSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse,
	_ ...discordgo.RequestOption) error {
	return m.Called(interaction, resp).Error(0)
}

func (m *MockSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool,
	data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, wait, data)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func restError(status int, code int) *discordgo.RESTError {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

func newTestDiscord(ms *MockSession, attempts uint) *Discord {
	d := &Discord{session: ms, guildID: "guild", attempts: attempts, delay: time.Millisecond}
	d.SetBotUser("bot")
	return d
}

func TestDiscord_SendPost(t *testing.T) {
	ms := new(MockSession)
	d := newTestDiscord(ms, 1)

	post := domain.Post{
		Kind:   domain.KindTrade,
		Author: "alice",
		Title:  "Trade",
		Fields: []domain.Field{{Name: "Wants", Value: "A"}},
		Buttons: []domain.Button{
			{Label: "Contact", ID: domain.NewCustomID(domain.ActionContact, "u1"), Style: domain.ButtonPrimary},
		},
	}

	ms.On("ChannelMessageSendComplex", "chan", mock.MatchedBy(func(data *discordgo.MessageSend) bool {
		if len(data.Embeds) != 1 || len(data.Components) != 1 {
			return false
		}
		embed := data.Embeds[0]
		row, ok := data.Components[0].(discordgo.ActionsRow)
		if !ok || len(row.Components) != 1 {
			return false
		}
		button, ok := row.Components[0].(discordgo.Button)
		return ok && button.CustomID == "contact_u1" &&
			embed.Footer.Text == "trade" && embed.Author.Name == "alice" && embed.Fields[0].Value == "A"
	})).Return(&discordgo.Message{ID: "m1", ChannelID: "chan"}, nil).Once()

	ref, err := d.SendPost(t.Context(), "chan", post)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageRef{ChannelID: "chan", MessageID: "m1"}, ref)
	ms.AssertExpectations(t)
}

func TestDiscord_Retry(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{name: "server error retried", err: restError(http.StatusBadGateway, 0), wantCalls: 3},
		{name: "network error retried", err: errors.New("connection reset"), wantCalls: 3},
		{name: "client error not retried", err: restError(http.StatusForbidden, 50013), wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := new(MockSession)
			d := newTestDiscord(ms, 3)

			ms.On("MessageReactionAdd", "chan", "m1", "👍").Return(tt.err)

			err := d.AddReaction(t.Context(), domain.MessageRef{ChannelID: "chan", MessageID: "m1"}, "👍")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrExternalCollaborator)
			ms.AssertNumberOfCalls(t, "MessageReactionAdd", tt.wantCalls)
		})
	}
}

func TestDiscord_DeleteMessage_UnknownIsSuccess(t *testing.T) {
	ms := new(MockSession)
	d := newTestDiscord(ms, 1)

	ms.On("ChannelMessageDelete", "chan", "gone").
		Return(restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)).Once()

	err := d.DeleteMessage(t.Context(), domain.MessageRef{ChannelID: "chan", MessageID: "gone"})
	require.NoError(t, err)
}

func TestDiscord_SendDirectMessage(t *testing.T) {
	ms := new(MockSession)
	d := newTestDiscord(ms, 1)

	ms.On("UserChannelCreate", "u1").Return(&discordgo.Channel{ID: "dm"}, nil).Once()
	ms.On("ChannelMessageSend", "dm", "hello").Return(&discordgo.Message{ID: "x"}, nil).Once()

	require.NoError(t, d.SendDirectMessage(t.Context(), "u1", "hello"))
	ms.AssertExpectations(t)
}

func TestDiscord_CreateChannel(t *testing.T) {
	ms := new(MockSession)
	d := newTestDiscord(ms, 1)

	ms.On("GuildChannelCreateComplex", "guild", mock.MatchedBy(func(data discordgo.GuildChannelCreateData) bool {
		if data.Name != "ticket-alice" || data.ParentID != "cat" || len(data.PermissionOverwrites) != 4 {
			return false
		}
		everyone := data.PermissionOverwrites[0]
		return everyone.ID == "guild" && everyone.Deny == discordgo.PermissionViewChannel &&
			data.PermissionOverwrites[3].ID == "bot"
	})).Return(&discordgo.Channel{ID: "c9"}, nil).Once()

	id, err := d.CreateChannel(t.Context(), domain.ChannelSpec{
		Name:     "ticket-alice",
		ParentID: "cat",
		Members:  []string{"alice", "owner"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c9", id)
	ms.AssertExpectations(t)
}

func TestDiscord_FetchRecentMessages(t *testing.T) {
	ms := new(MockSession)
	d := newTestDiscord(ms, 1)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ms.On("ChannelMessages", "sugg", 100).Return([]*discordgo.Message{
		{
			ID:        "m1",
			ChannelID: "sugg",
			Author:    &discordgo.User{ID: "bot"},
			Timestamp: created,
			Embeds: []*discordgo.MessageEmbed{{
				Description: "more trades",
				Author:      &discordgo.MessageEmbedAuthor{Name: "alice"},
				Footer:      &discordgo.MessageEmbedFooter{Text: "suggestion"},
				Fields:      []*discordgo.MessageEmbedField{{Name: "Votes", Value: "3"}},
			}},
			Reactions: []*discordgo.MessageReactions{
				{Count: 4, Me: true, Emoji: &discordgo.Emoji{Name: "👍"}},
				{Count: 1, Me: false, Emoji: &discordgo.Emoji{Name: "👎"}},
			},
		},
		{ID: "m2", ChannelID: "sugg", Author: &discordgo.User{ID: "u2"}, Content: "hi"},
	}, nil).Once()

	msgs, err := d.FetchRecentMessages(t.Context(), "sugg", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, domain.KindSuggestion, msgs[0].Kind)
	assert.True(t, msgs[0].AuthorIsBot)
	assert.Equal(t, "alice", msgs[0].Author)
	assert.Equal(t, "more trades", msgs[0].Text)
	assert.Equal(t, 3, msgs[0].Reactions["👍"])
	assert.Equal(t, 1, msgs[0].Reactions["👎"])
	assert.Equal(t, "3", msgs[0].Fields["Votes"])
	assert.Equal(t, created, msgs[0].CreatedAt)

	assert.Equal(t, domain.KindNone, msgs[1].Kind)
	assert.False(t, msgs[1].AuthorIsBot)
	assert.Equal(t, "hi", msgs[1].Text)
}

func TestDiscord_FetchReactionCount(t *testing.T) {
	ms := new(MockSession)
	d := newTestDiscord(ms, 1)

	ms.On("ChannelMessage", "sugg", "m1").Return(&discordgo.Message{
		ID: "m1",
		Reactions: []*discordgo.MessageReactions{
			{Count: 1, Me: true, Emoji: &discordgo.Emoji{Name: "👍"}},
		},
	}, nil).Once()

	n, err := d.FetchReactionCount(t.Context(), domain.MessageRef{ChannelID: "sugg", MessageID: "m1"}, "👍")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestChunkText(t *testing.T) {
	assert.Equal(t, []string{"abc"}, chunkText("abc", 5))
	assert.Equal(t, []string{"ab", "cd", "e"}, chunkText("abcde", 2))
	assert.Equal(t, []string{"éé", "é"}, chunkText("ééé", 2))
}
