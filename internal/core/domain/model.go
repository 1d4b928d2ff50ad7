package domain

import "time"

// MessageRef points at a rendered message on the messaging platform.
type MessageRef struct {
	ChannelID string
	MessageID string
}

func (r MessageRef) IsZero() bool {
	return r.ChannelID == "" && r.MessageID == ""
}

type TradeFields struct {
	Wants       string
	Offers      string
	Description string
	ImageURL    string
}

type TradeListing struct {
	ID        string
	OwnerID   string
	Fields    TradeFields
	Message   MessageRef
	CreatedAt time.Time
}

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

type SupportTicket struct {
	ID          string
	RequesterID string
	OwnerID     string
	Subject     string
	Description string
	ChannelID   string
	Status      TicketStatus
	CreatedAt   time.Time
}

// IsParticipant reports whether userID is the requester or the staff owner of the ticket.
func (t SupportTicket) IsParticipant(userID string) bool {
	return userID == t.RequesterID || userID == t.OwnerID
}

type Review struct {
	ID         string
	ReviewerID string
	Rating     int
	Title      string
	Body       string
	Message    MessageRef
	CreatedAt  time.Time
}

// ChannelSpec describes a private channel to provision.
type ChannelSpec struct {
	Name     string
	ParentID string
	Topic    string
	Members  []string
}

// User identifies the actor of an event.
type User struct {
	ID       string
	Username string
	Bot      bool
}

// Invocation is a slash command invoked by a user.
type Invocation struct {
	ID        string
	GuildID   string
	ChannelID string
	User      User
	Command   string
	Options   map[string]string
}

// Interaction is a button press on a previously rendered post.
type Interaction struct {
	ID        string
	GuildID   string
	ChannelID string
	MessageID string
	User      User
	CustomID  string
}

// FormSubmission carries the values of a submitted form keyed by input id.
type FormSubmission struct {
	FormID    FormID
	GuildID   string
	ChannelID string
	User      User
	Values    map[string]string
}

type ReactionEvent struct {
	ChannelID string
	MessageID string
	UserID    string
	Emoji     string
	Added     bool
}

// RenderedMessage is a snapshot of a message fetched back from a channel.
type RenderedMessage struct {
	ID          string
	ChannelID   string
	AuthorID    string
	AuthorIsBot bool
	Kind        PostKind
	Author      string
	Title       string
	Text        string
	Fields      map[string]string
	Reactions   map[string]int
	CreatedAt   time.Time
}

type RankedSuggestion struct {
	MessageID string
	Author    string
	Text      string
	Votes     int
	CreatedAt time.Time
}

type RankedReview struct {
	MessageID string
	Author    string
	Title     string
	Rating    int
	CreatedAt time.Time
}

// Ranking is the result of an aggregation. Matched counts records that parsed, Malformed counts
// records tagged with the right kind that could not be parsed.
type Ranking[T any] struct {
	Entries   []T
	Matched   int
	Malformed int
}

// Empty reports that no record of the requested kind was found at all.
func (r Ranking[T]) Empty() bool {
	return r.Matched == 0 && r.Malformed == 0
}
