package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"
	"tradebot/internal/core/domain"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// Provisioner creates the external channel backing a ticket and returns its id.
type Provisioner func(ctx context.Context, ticket domain.SupportTicket) (string, error)

// ClosePolicy decides whether actorID may close ticket.
type ClosePolicy func(ticket domain.SupportTicket, actorID string) bool

// Store holds the live trades, tickets and reviews of the process. Each operation is atomic on
// its own; sequences of operations are not.
type Store struct {
	trades  map[string]domain.TradeListing
	tickets map[string]domain.SupportTicket
	reviews map[string]domain.Review
	ownerID string
	mutex   *sync.Mutex
	now     func() time.Time
}

func NewStore(ownerID string) *Store {
	return &Store{
		trades:  make(map[string]domain.TradeListing),
		tickets: make(map[string]domain.SupportTicket),
		reviews: make(map[string]domain.Review),
		ownerID: ownerID,
		mutex:   &sync.Mutex{},
		now:     time.Now,
	}
}

// CreateTrade validates fields and stores a listing for ownerID, replacing any previous one.
func (s *Store) CreateTrade(ownerID string, fields domain.TradeFields) (domain.TradeListing, error) {
	fields, err := validateTrade(fields)
	if err != nil {
		return domain.TradeListing{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return domain.TradeListing{}, err
	}

	listing := domain.TradeListing{
		ID:        id.String(),
		OwnerID:   ownerID,
		Fields:    fields,
		CreatedAt: s.now(),
	}

	s.mutex.Lock()
	prev, replaced := s.trades[ownerID]
	s.trades[ownerID] = listing
	s.mutex.Unlock()

	if replaced {
		log.Warn().Str("ownerId", ownerID).Str("replacedId", prev.ID).
			Str("channelId", prev.Message.ChannelID).Str("messageId", prev.Message.MessageID).
			Msg("trade listing replaced, previous post is orphaned")
	}

	return listing, nil
}

// AttachTradeMessage records where a listing was rendered. It fails if the listing has been
// cancelled or replaced in the meantime.
func (s *Store) AttachTradeMessage(ownerID, listingID string, ref domain.MessageRef) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	listing, ok := s.trades[ownerID]
	if !ok || listing.ID != listingID {
		return fmt.Errorf("trade %s: %w", listingID, domain.ErrNotFound)
	}

	listing.Message = ref
	s.trades[ownerID] = listing

	return nil
}

// DiscardTrade removes the listing with listingID if it is still the active one for ownerID.
func (s *Store) DiscardTrade(ownerID, listingID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if listing, ok := s.trades[ownerID]; ok && listing.ID == listingID {
		delete(s.trades, ownerID)
	}
}

// TradesByOwner returns the active listings of ownerID, which is at most one.
func (s *Store) TradesByOwner(ownerID string) []domain.TradeListing {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	listing, ok := s.trades[ownerID]
	if !ok {
		return nil
	}

	return []domain.TradeListing{listing}
}

// CancelTrade removes the listing of ownerID on behalf of actorID and returns the removed record.
func (s *Store) CancelTrade(ownerID, actorID string) (domain.TradeListing, error) {
	if actorID != ownerID {
		return domain.TradeListing{}, fmt.Errorf("cancel trade of %s: %w", ownerID, domain.ErrAuthorization)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	listing, ok := s.trades[ownerID]
	if !ok {
		return domain.TradeListing{}, fmt.Errorf("trade of %s: %w", ownerID, domain.ErrNotFound)
	}

	delete(s.trades, ownerID)

	return listing, nil
}

// CreateTicket validates the request, provisions the backing channel and stores the ticket keyed
// by that channel. Nothing is stored if provisioning fails.
func (s *Store) CreateTicket(ctx context.Context, requesterID, subject, description string,
	provision Provisioner) (domain.SupportTicket, error) {
	subject = strings.TrimSpace(subject)
	description = strings.TrimSpace(description)

	switch {
	case subject == "":
		return domain.SupportTicket{}, fmt.Errorf("%w: subject is required", domain.ErrValidation)
	case description == "":
		return domain.SupportTicket{}, fmt.Errorf("%w: description is required", domain.ErrValidation)
	case utf8.RuneCountInString(subject) > domain.MaxSubjectLength:
		return domain.SupportTicket{}, fmt.Errorf("%w: subject exceeds %d characters",
			domain.ErrValidation, domain.MaxSubjectLength)
	case utf8.RuneCountInString(description) > domain.MaxTicketBodyLength:
		return domain.SupportTicket{}, fmt.Errorf("%w: description exceeds %d characters",
			domain.ErrValidation, domain.MaxTicketBodyLength)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return domain.SupportTicket{}, err
	}

	ticket := domain.SupportTicket{
		ID:          id.String(),
		RequesterID: requesterID,
		OwnerID:     s.ownerID,
		Subject:     subject,
		Description: description,
		Status:      domain.TicketOpen,
		CreatedAt:   s.now(),
	}

	channelID, err := provision(ctx, ticket)
	if err != nil {
		return domain.SupportTicket{}, fmt.Errorf("provisioning ticket channel: %w", err)
	}

	ticket.ChannelID = channelID

	s.mutex.Lock()
	s.tickets[channelID] = ticket
	s.mutex.Unlock()

	return ticket, nil
}

// Ticket returns the open ticket backed by channelID.
func (s *Store) Ticket(channelID string) (domain.SupportTicket, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tickets[channelID]
	return t, ok
}

// CloseTicket removes the ticket backed by channelID immediately. A nil policy lets any actor
// close it.
func (s *Store) CloseTicket(channelID, actorID string, policy ClosePolicy) (domain.SupportTicket, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ticket, ok := s.tickets[channelID]
	if !ok {
		return domain.SupportTicket{}, fmt.Errorf("ticket in channel %s: %w", channelID, domain.ErrNotFound)
	}

	if policy != nil && !policy(ticket, actorID) {
		return domain.SupportTicket{}, fmt.Errorf("close ticket %s: %w", ticket.ID, domain.ErrAuthorization)
	}

	delete(s.tickets, channelID)
	ticket.Status = domain.TicketClosed

	return ticket, nil
}

// RecordReview stores the single review of reviewerID.
func (s *Store) RecordReview(reviewerID string, rating int, title, body string) (domain.Review, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.reviews[reviewerID]; ok {
		return domain.Review{}, fmt.Errorf("review by %s: %w", reviewerID, domain.ErrDuplicate)
	}

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	switch {
	case rating < domain.MinRating || rating > domain.MaxRating:
		return domain.Review{}, fmt.Errorf("%w: rating must be between %d and %d",
			domain.ErrValidation, domain.MinRating, domain.MaxRating)
	case title == "":
		return domain.Review{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	case body == "":
		return domain.Review{}, fmt.Errorf("%w: review text is required", domain.ErrValidation)
	case utf8.RuneCountInString(title) > domain.MaxReviewTitleLength:
		return domain.Review{}, fmt.Errorf("%w: title exceeds %d characters",
			domain.ErrValidation, domain.MaxReviewTitleLength)
	case utf8.RuneCountInString(body) > domain.MaxReviewBodyLength:
		return domain.Review{}, fmt.Errorf("%w: review exceeds %d characters",
			domain.ErrValidation, domain.MaxReviewBodyLength)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return domain.Review{}, err
	}

	review := domain.Review{
		ID:         id.String(),
		ReviewerID: reviewerID,
		Rating:     rating,
		Title:      title,
		Body:       body,
		CreatedAt:  s.now(),
	}
	s.reviews[reviewerID] = review

	return review, nil
}

// HasReview reports whether reviewerID already submitted a review.
func (s *Store) HasReview(reviewerID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, ok := s.reviews[reviewerID]
	return ok
}

func (s *Store) AttachReviewMessage(reviewerID string, ref domain.MessageRef) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	review, ok := s.reviews[reviewerID]
	if !ok {
		return fmt.Errorf("review by %s: %w", reviewerID, domain.ErrNotFound)
	}

	review.Message = ref
	s.reviews[reviewerID] = review

	return nil
}

// Counts returns the number of live records per kind.
func (s *Store) Counts() map[domain.PostKind]int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return map[domain.PostKind]int{
		domain.KindTrade:  len(s.trades),
		domain.KindTicket: len(s.tickets),
		domain.KindReview: len(s.reviews),
	}
}

// ParseRating reads a rating typed into a form.
func ParseRating(raw string) (int, error) {
	rating, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: rating must be a whole number", domain.ErrValidation)
	}

	return rating, nil
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

func validateTrade(f domain.TradeFields) (domain.TradeFields, error) {
	f = domain.TradeFields{
		Wants:       strings.TrimSpace(f.Wants),
		Offers:      strings.TrimSpace(f.Offers),
		Description: strings.TrimSpace(f.Description),
		ImageURL:    strings.TrimSpace(f.ImageURL),
	}

	switch {
	case f.Wants == "":
		return f, fmt.Errorf("%w: wants is required", domain.ErrValidation)
	case f.Offers == "":
		return f, fmt.Errorf("%w: offers is required", domain.ErrValidation)
	case utf8.RuneCountInString(f.Wants) > domain.MaxWantsLength:
		return f, fmt.Errorf("%w: wants exceeds %d characters", domain.ErrValidation, domain.MaxWantsLength)
	case utf8.RuneCountInString(f.Offers) > domain.MaxOffersLength:
		return f, fmt.Errorf("%w: offers exceeds %d characters", domain.ErrValidation, domain.MaxOffersLength)
	case utf8.RuneCountInString(f.Description) > domain.MaxDescriptionLength:
		return f, fmt.Errorf("%w: description exceeds %d characters",
			domain.ErrValidation, domain.MaxDescriptionLength)
	}

	if f.ImageURL != "" && !IsImageURL(f.ImageURL) {
		return f, fmt.Errorf("%w: image must be an http(s) link to a png, jpg, gif or webp file",
			domain.ErrValidation)
	}

	return f, nil
}

// IsImageURL reports whether raw is an absolute http(s) URL whose path ends in an image extension.
func IsImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}
