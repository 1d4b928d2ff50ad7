package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RouterConfig struct {
	TradeChannelID      string
	SuggestionChannelID string
	ReviewChannelID     string
	TicketCategoryID    string
	OwnerID             string
	VoteEmoji           string
	DownvoteEmoji       string
	CloseDelay          time.Duration
	RestrictClose       bool
}

// LoadRouterConfig reads the router settings from the loaded configuration.
func LoadRouterConfig() RouterConfig {
	return RouterConfig{
		TradeChannelID:      viper.GetString("discord.trade_channel_id"),
		SuggestionChannelID: viper.GetString("discord.suggestion_channel_id"),
		ReviewChannelID:     viper.GetString("discord.review_channel_id"),
		TicketCategoryID:    viper.GetString("discord.ticket_category_id"),
		OwnerID:             viper.GetString("discord.owner_id"),
		VoteEmoji:           viper.GetString("suggestions.vote_emoji"),
		DownvoteEmoji:       viper.GetString("suggestions.downvote_emoji"),
		CloseDelay:          viper.GetDuration("tickets.close_delay"),
		RestrictClose:       viper.GetBool("tickets.restrict_close"),
	}
}

// Router decodes button presses and form submissions and applies them to the Store.
type Router struct {
	ctx       context.Context
	store     *Store
	messenger port.Messenger
	notifier  port.StaffNotifier
	metrics   port.Metrics
	auth      *StaffAuthorizer
	cfg       RouterConfig
	after     func(time.Duration) <-chan time.Time
}

type RouterParams struct {
	Store     *Store
	Messenger port.Messenger
	Notifier  port.StaffNotifier
	Metrics   port.Metrics
	Auth      *StaffAuthorizer
	Config    RouterConfig
}

// NewRouter creates a Router. ctx bounds the deferred work the router schedules, such as
// deleting closed ticket channels.
func NewRouter(ctx context.Context, p RouterParams) *Router {
	r := &Router{
		ctx:       ctx,
		store:     p.Store,
		messenger: p.Messenger,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
		auth:      p.Auth,
		cfg:       p.Config,
		after:     time.After,
	}

	if r.notifier == nil {
		r.notifier = nopNotifier{}
	}
	if r.metrics == nil {
		r.metrics = nopMetrics{}
	}
	if r.auth == nil {
		r.auth = &StaffAuthorizer{ownerID: p.Config.OwnerID}
	}

	return r
}

type actionHandler func(ctx context.Context, l zerolog.Logger, in *domain.Interaction, subject string,
	reply port.Replier) error

// Route handles a button press. Errors are reported to the actor through reply and returned.
// Unknown actions are ignored.
func (r *Router) Route(ctx context.Context, in *domain.Interaction, reply port.Replier) error {
	l := log.With().
		Str("interactionId", in.ID).
		Str("customId", in.CustomID).
		Str("userId", in.User.ID).
		Str("channelId", in.ChannelID).
		Logger()

	id, err := domain.ParseCustomID(in.CustomID)
	if err != nil {
		r.metrics.ObserveInteraction("malformed", outcome(err))
		return r.notifyAndReturnError(ctx, l, err, reply)
	}

	var handle actionHandler
	switch id.Action {
	case domain.ActionContact:
		handle = r.contact
	case domain.ActionCancel:
		handle = r.cancel
	case domain.ActionCloseTicket:
		handle = r.closeTicket
	case domain.ActionContactOwner:
		handle = r.contactOwner
	case domain.ActionAgreeTicket:
		handle = r.agreeTicket
	case domain.ActionCreateTicket:
		handle = r.createTicket
	default:
		l.Debug().Str("action", id.Raw).Msg("ignoring unknown action")
		r.metrics.ObserveInteraction(id.Action.String(), "ignored")
		return nil
	}

	l = l.With().Str("action", id.Action.String()).Str("subject", id.Subject).Logger()
	l.Info().Msg("handling interaction")

	err = handle(ctx, l, in, id.Subject, reply)
	r.metrics.ObserveInteraction(id.Action.String(), outcome(err))
	r.reportCounts()

	if err != nil {
		return r.notifyAndReturnError(ctx, l, err, reply)
	}

	return nil
}

func (r *Router) contact(ctx context.Context, l zerolog.Logger, in *domain.Interaction, subject string,
	reply port.Replier) error {
	if in.User.ID == subject {
		return fmt.Errorf("contact %s: %w", subject, domain.ErrSelfReference)
	}

	trades := r.store.TradesByOwner(subject)
	if len(trades) == 0 {
		return fmt.Errorf("trade of %s: %w", subject, domain.ErrNotFound)
	}
	listing := trades[0]

	var errs []error

	err := r.messenger.SendDirectMessage(ctx, listing.OwnerID, fmt.Sprintf(
		"<@%s> is interested in your trade (wants: %s, offers: %s). Reach out to them to arrange it.",
		in.User.ID, listing.Fields.Wants, listing.Fields.Offers))
	if err != nil {
		l.Warn().Err(err).Msg("failed to notify trade owner")
		errs = append(errs, fmt.Errorf("notifying owner: %w", err))
	}

	err = r.messenger.SendDirectMessage(ctx, in.User.ID, fmt.Sprintf(
		"You contacted <@%s> about their trade (wants: %s, offers: %s). They will get back to you.",
		listing.OwnerID, listing.Fields.Wants, listing.Fields.Offers))
	if err != nil {
		l.Warn().Err(err).Msg("failed to notify contacting user")
		errs = append(errs, fmt.Errorf("notifying you: %w", err))
	}

	if len(errs) > 0 {
		return external(errors.Join(errs...))
	}

	return r.notice(ctx, l, reply, "The trader has been notified, check your direct messages.")
}

func (r *Router) cancel(ctx context.Context, l zerolog.Logger, in *domain.Interaction, subject string,
	reply port.Replier) error {
	listing, err := r.store.CancelTrade(subject, in.User.ID)
	if err != nil {
		return err
	}

	l.Info().Str("tradeId", listing.ID).Msg("trade cancelled")

	if !listing.Message.IsZero() {
		err = r.messenger.EditPost(ctx, listing.Message, CancelledTradePost(listing))
		if err != nil {
			return external(fmt.Errorf("trade removed but the post could not be updated: %w", err))
		}
	}

	return r.notice(ctx, l, reply, "Your trade has been cancelled.")
}

func (r *Router) closeTicket(ctx context.Context, l zerolog.Logger, in *domain.Interaction, subject string,
	reply port.Replier) error {
	ticket, err := r.store.CloseTicket(subject, in.User.ID, r.auth.ClosePolicy(r.cfg.RestrictClose))
	if err != nil {
		return err
	}

	l.Info().Str("ticketId", ticket.ID).Dur("delay", r.cfg.CloseDelay).Msg("ticket closed")

	go r.deleteChannelLater(ticket.ChannelID)

	r.relay(ctx, l, fmt.Sprintf("Ticket %q of %s was closed by %s.", ticket.Subject,
		ticket.RequesterID, in.User.Username))

	err = reply.Reply(ctx, fmt.Sprintf("Ticket closed by <@%s>. This channel will be deleted in %s.",
		in.User.ID, r.cfg.CloseDelay))
	if err != nil {
		l.Warn().Err(err).Msg("failed to announce ticket closing")
	}

	return nil
}

func (r *Router) deleteChannelLater(channelID string) {
	l := log.With().Str("channelId", channelID).Logger()

	select {
	case <-r.after(r.cfg.CloseDelay):
	case <-r.ctx.Done():
		l.Debug().Msg("shutting down, ticket channel not deleted")
		return
	}

	err := r.messenger.DeleteChannel(r.ctx, channelID)
	if err != nil {
		l.Warn().Err(err).Msg("failed to delete ticket channel")
		return
	}

	l.Debug().Msg("deleted ticket channel")
}

func (r *Router) contactOwner(ctx context.Context, l zerolog.Logger, in *domain.Interaction, subject string,
	reply port.Replier) error {
	if in.User.ID != subject {
		return fmt.Errorf("contact owner for %s: %w", subject, domain.ErrAuthorization)
	}

	ticket, ok := r.store.Ticket(in.ChannelID)
	if !ok {
		return fmt.Errorf("ticket in channel %s: %w", in.ChannelID, domain.ErrNotFound)
	}

	err := r.messenger.SendDirectMessage(ctx, ticket.OwnerID, fmt.Sprintf(
		"<@%s> asks for your attention in their ticket <#%s>: %s", in.User.ID, ticket.ChannelID, ticket.Subject))
	if err != nil {
		return external(fmt.Errorf("notifying owner: %w", err))
	}

	r.relay(ctx, l, fmt.Sprintf("%s asks for the owner in ticket %q.", in.User.Username, ticket.Subject))

	return r.notice(ctx, l, reply, "The owner has been notified.")
}

const ticketRules = "Before opening a ticket, please make sure your question is not answered in the FAQ. " +
	"Be respectful to staff and describe your issue in as much detail as possible."

func (r *Router) createTicket(ctx context.Context, _ zerolog.Logger, in *domain.Interaction, _ string,
	reply port.Replier) error {
	return reply.Prompt(ctx, ticketRules, []domain.Button{
		{Label: "I agree", ID: domain.NewCustomID(domain.ActionAgreeTicket, in.User.ID), Style: domain.ButtonSuccess},
	})
}

func (r *Router) agreeTicket(ctx context.Context, _ zerolog.Logger, in *domain.Interaction, subject string,
	reply port.Replier) error {
	if in.User.ID != subject {
		return fmt.Errorf("agree ticket rules for %s: %w", subject, domain.ErrAuthorization)
	}

	return reply.OpenForm(ctx, domain.NewTicketForm())
}

// Submit handles a submitted form. Unknown forms are ignored.
func (r *Router) Submit(ctx context.Context, sub *domain.FormSubmission, reply port.Replier) error {
	l := log.With().
		Str("form", string(sub.FormID)).
		Str("userId", sub.User.ID).
		Logger()

	var err error
	switch sub.FormID {
	case domain.TradeForm:
		err = r.submitTrade(ctx, l, sub, reply)
	case domain.SuggestionForm:
		err = r.submitSuggestion(ctx, l, sub, reply)
	case domain.ReviewForm:
		err = r.submitReview(ctx, l, sub, reply)
	case domain.TicketForm:
		err = r.submitTicket(ctx, l, sub, reply)
	default:
		l.Debug().Msg("ignoring unknown form")
		r.metrics.ObserveInteraction(string(sub.FormID), "ignored")
		return nil
	}

	r.metrics.ObserveInteraction(string(sub.FormID), outcome(err))
	r.reportCounts()

	if err != nil {
		return r.notifyAndReturnError(ctx, l, err, reply)
	}

	return nil
}

func (r *Router) submitTrade(ctx context.Context, l zerolog.Logger, sub *domain.FormSubmission,
	reply port.Replier) error {
	listing, err := r.store.CreateTrade(sub.User.ID, domain.TradeFields{
		Wants:       sub.Values[domain.InputWants],
		Offers:      sub.Values[domain.InputOffers],
		Description: sub.Values[domain.InputDescription],
		ImageURL:    sub.Values[domain.InputImage],
	})
	if err != nil {
		return err
	}

	ref, err := r.messenger.SendPost(ctx, r.cfg.TradeChannelID, TradePost(listing, sub.User.Username))
	if err != nil {
		r.store.DiscardTrade(sub.User.ID, listing.ID)
		return external(fmt.Errorf("posting trade: %w", err))
	}

	err = r.store.AttachTradeMessage(sub.User.ID, listing.ID, ref)
	if err != nil {
		l.Warn().Err(err).Msg("trade changed while it was being posted")
	}

	l.Info().Str("tradeId", listing.ID).Str("messageId", ref.MessageID).Msg("trade posted")

	return r.notice(ctx, l, reply, "Your trade has been posted!")
}

func (r *Router) submitSuggestion(ctx context.Context, l zerolog.Logger, sub *domain.FormSubmission,
	reply port.Replier) error {
	text := strings.TrimSpace(sub.Values[domain.InputSuggestion])
	switch {
	case text == "":
		return fmt.Errorf("%w: suggestion is required", domain.ErrValidation)
	case utf8.RuneCountInString(text) > domain.MaxSuggestionLength:
		return fmt.Errorf("%w: suggestion exceeds %d characters", domain.ErrValidation, domain.MaxSuggestionLength)
	}

	ref, err := r.messenger.SendPost(ctx, r.cfg.SuggestionChannelID, SuggestionPost(sub.User.Username, text, 0))
	if err != nil {
		return external(fmt.Errorf("posting suggestion: %w", err))
	}

	for _, emoji := range []string{r.cfg.VoteEmoji, r.cfg.DownvoteEmoji} {
		if emoji == "" {
			continue
		}
		if err := r.messenger.AddReaction(ctx, ref, emoji); err != nil {
			l.Warn().Err(err).Str("emoji", emoji).Msg("failed to seed vote reaction")
		}
	}

	return r.notice(ctx, l, reply, "Thanks for your suggestion!")
}

func (r *Router) submitReview(ctx context.Context, l zerolog.Logger, sub *domain.FormSubmission,
	reply port.Replier) error {
	rating, err := ParseRating(sub.Values[domain.InputRating])
	if err != nil {
		return err
	}

	review, err := r.store.RecordReview(sub.User.ID, rating, sub.Values[domain.InputTitle], sub.Values[domain.InputBody])
	if err != nil {
		return err
	}

	ref, err := r.messenger.SendPost(ctx, r.cfg.ReviewChannelID, ReviewPost(sub.User.Username, review))
	if err != nil {
		return external(fmt.Errorf("review saved but could not be posted: %w", err))
	}

	if err := r.store.AttachReviewMessage(sub.User.ID, ref); err != nil {
		l.Warn().Err(err).Msg("failed to record review post")
	}

	return r.notice(ctx, l, reply, "Thanks for your review!")
}

func (r *Router) submitTicket(ctx context.Context, l zerolog.Logger, sub *domain.FormSubmission,
	reply port.Replier) error {
	ticket, err := r.store.CreateTicket(ctx, sub.User.ID, sub.Values[domain.InputSubject],
		sub.Values[domain.InputDescription], r.provisionTicket(sub.User))
	if err != nil {
		return err
	}

	l = l.With().Str("ticketId", ticket.ID).Str("channelId", ticket.ChannelID).Logger()
	l.Info().Msg("ticket opened")

	if _, err := r.messenger.SendPost(ctx, ticket.ChannelID, TicketPost(ticket)); err != nil {
		l.Warn().Err(err).Msg("failed to post ticket header")
	}

	r.relay(ctx, l, fmt.Sprintf("New ticket from %s: %s", sub.User.Username, ticket.Subject))

	return r.notice(ctx, l, reply, fmt.Sprintf("Your ticket has been opened: <#%s>", ticket.ChannelID))
}

var channelNameCleaner = regexp.MustCompile(`[^a-z0-9-]+`)

func (r *Router) provisionTicket(requester domain.User) Provisioner {
	return func(ctx context.Context, ticket domain.SupportTicket) (string, error) {
		name := channelNameCleaner.ReplaceAllString(strings.ToLower(requester.Username), "")
		if name == "" {
			name = requester.ID
		}

		channelID, err := r.messenger.CreateChannel(ctx, domain.ChannelSpec{
			Name:     "ticket-" + name,
			ParentID: r.cfg.TicketCategoryID,
			Topic:    ticket.Subject,
			Members:  []string{ticket.RequesterID, ticket.OwnerID},
		})
		if err != nil {
			return "", external(err)
		}

		return channelID, nil
	}
}

func (r *Router) notice(ctx context.Context, l zerolog.Logger, reply port.Replier, text string) error {
	if err := reply.Notice(ctx, text); err != nil {
		l.Warn().Err(err).Msg("failed to send notice")
	}
	return nil
}

func (r *Router) relay(ctx context.Context, l zerolog.Logger, text string) {
	if err := r.notifier.NotifyStaff(ctx, text); err != nil {
		l.Warn().Err(err).Msg("failed to relay to staff")
	}
}

func (r *Router) notifyAndReturnError(ctx context.Context, l zerolog.Logger, err error, reply port.Replier) error {
	l.Warn().Err(err).Msg("interaction failed")

	if sendErr := reply.Notice(ctx, domain.Notice(err)); sendErr != nil {
		l.Error().Err(sendErr).Msg("failed to report error to user")
	}

	return err
}

func (r *Router) reportCounts() {
	for kind, n := range r.store.Counts() {
		r.metrics.SetActiveRecords(string(kind), n)
	}
}

func external(err error) error {
	if errors.Is(err, domain.ErrExternalCollaborator) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrExternalCollaborator, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrAuthorization):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, domain.ErrSelfReference):
		return "self_reference"
	case errors.Is(err, domain.ErrMalformedID):
		return "malformed"
	case errors.Is(err, domain.ErrExternalCollaborator):
		return "external_error"
	default:
		return "error"
	}
}

type nopNotifier struct{}

func (nopNotifier) NotifyStaff(context.Context, string) error { return nil }

type nopMetrics struct{}

func (nopMetrics) ObserveInteraction(string, string) {}
func (nopMetrics) SetActiveRecords(string, int)      {}
