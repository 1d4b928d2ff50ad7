package port

import (
	"context"
	"tradebot/internal/core/domain"
)

// Messenger is the outbound side of the messaging platform.
type Messenger interface {
	// SendPost renders a post into a channel and returns a reference to the created message.
	SendPost(ctx context.Context, channelID string, post domain.Post) (domain.MessageRef, error)
	// EditPost replaces the content of a previously rendered message.
	EditPost(ctx context.Context, ref domain.MessageRef, post domain.Post) error
	// DeleteMessage removes a message. Deleting a message that is already gone is not an error.
	DeleteMessage(ctx context.Context, ref domain.MessageRef) error
	// SendDirectMessage sends a private message to a user.
	SendDirectMessage(ctx context.Context, userID string, text string) error
	// AddReaction seeds a reaction on a message.
	AddReaction(ctx context.Context, ref domain.MessageRef, emoji string) error
	// CreateChannel provisions a channel and returns its id.
	CreateChannel(ctx context.Context, spec domain.ChannelSpec) (string, error)
	// DeleteChannel removes a channel.
	DeleteChannel(ctx context.Context, channelID string) error
	// FetchRecentMessages returns up to limit of the newest messages of a channel.
	FetchRecentMessages(ctx context.Context, channelID string, limit int) ([]domain.RenderedMessage, error)
	// FetchMessage returns a single message.
	FetchMessage(ctx context.Context, ref domain.MessageRef) (domain.RenderedMessage, error)
	// FetchReactionCount returns how many users other than the bot reacted with emoji.
	FetchReactionCount(ctx context.Context, ref domain.MessageRef, emoji string) (int, error)
}

// Replier answers the interaction or command currently being handled.
type Replier interface {
	// Notice sends a short message only the actor can see.
	Notice(ctx context.Context, text string) error
	// Reply sends a message visible to the whole channel.
	Reply(ctx context.Context, text string) error
	// Prompt sends a private message with buttons.
	Prompt(ctx context.Context, text string, buttons []domain.Button) error
	// OpenForm presents a form to the actor.
	OpenForm(ctx context.Context, form domain.Form) error
}

// StaffNotifier relays noteworthy events to the staff outside of the community server.
type StaffNotifier interface {
	NotifyStaff(ctx context.Context, text string) error
}
