package service

import (
	"fmt"
	"strconv"
	"strings"
	"tradebot/internal/core/domain"
)

const (
	WantsField       = "Wants"
	OffersField      = "Offers"
	VotesField       = "Votes"
	RatingField      = "Rating"
	StatusField      = "Status"
	RequesterField   = "Requester"
	colorTrade       = 0x2ecc71
	colorCancelled   = 0x95a5a6
	colorSuggestion  = 0x3498db
	colorReview      = 0xf1c40f
	colorTicket      = 0xe67e22
	cancelledTitle   = "Trade cancelled"
	ticketPanelTitle = "Support"
)

// TradePost renders an active listing with its contact and cancel buttons.
func TradePost(listing domain.TradeListing, ownerName string) domain.Post {
	return domain.Post{
		Kind:        domain.KindTrade,
		Author:      ownerName,
		Title:       "Trade offer",
		Description: listing.Fields.Description,
		Fields: []domain.Field{
			{Name: WantsField, Value: listing.Fields.Wants, Inline: true},
			{Name: OffersField, Value: listing.Fields.Offers, Inline: true},
		},
		ImageURL: listing.Fields.ImageURL,
		Color:    colorTrade,
		Buttons: []domain.Button{
			{Label: "Contact", ID: domain.NewCustomID(domain.ActionContact, listing.OwnerID),
				Style: domain.ButtonPrimary},
			{Label: "Cancel", ID: domain.NewCustomID(domain.ActionCancel, listing.OwnerID),
				Style: domain.ButtonDanger},
		},
	}
}

// CancelledTradePost renders a listing after cancellation, without buttons.
func CancelledTradePost(listing domain.TradeListing) domain.Post {
	return domain.Post{
		Kind:  domain.KindTrade,
		Title: cancelledTitle,
		Fields: []domain.Field{
			{Name: WantsField, Value: "~~" + listing.Fields.Wants + "~~", Inline: true},
			{Name: OffersField, Value: "~~" + listing.Fields.Offers + "~~", Inline: true},
		},
		Color: colorCancelled,
	}
}

func SuggestionPost(author, text string, votes int) domain.Post {
	return domain.Post{
		Kind:        domain.KindSuggestion,
		Author:      author,
		Title:       "Suggestion",
		Description: text,
		Fields:      []domain.Field{{Name: VotesField, Value: strconv.Itoa(votes), Inline: true}},
		Color:       colorSuggestion,
	}
}

func ReviewPost(author string, review domain.Review) domain.Post {
	return domain.Post{
		Kind:        domain.KindReview,
		Author:      author,
		Title:       review.Title,
		Description: review.Body,
		Fields:      []domain.Field{{Name: RatingField, Value: FormatRating(review.Rating), Inline: true}},
		Color:       colorReview,
	}
}

// FormatRating renders a rating as stars followed by "n/5".
func FormatRating(rating int) string {
	return fmt.Sprintf("%s %d/%d", strings.Repeat("⭐", rating), rating, domain.MaxRating)
}

func TicketPost(ticket domain.SupportTicket) domain.Post {
	return domain.Post{
		Kind:        domain.KindTicket,
		Title:       ticket.Subject,
		Description: ticket.Description,
		Fields: []domain.Field{
			{Name: RequesterField, Value: "<@" + ticket.RequesterID + ">", Inline: true},
			{Name: StatusField, Value: string(ticket.Status), Inline: true},
		},
		Color: colorTicket,
		Buttons: []domain.Button{
			{Label: "Close ticket", ID: domain.NewCustomID(domain.ActionCloseTicket, ticket.ChannelID),
				Style: domain.ButtonDanger},
			{Label: "Contact owner", ID: domain.NewCustomID(domain.ActionContactOwner, ticket.RequesterID),
				Style: domain.ButtonSecondary},
		},
	}
}

func TicketPanelPost() domain.Post {
	return domain.Post{
		Kind:        domain.KindPanel,
		Title:       ticketPanelTitle,
		Description: "Need help? Press the button below to open a private support ticket.",
		Color:       colorTicket,
		Buttons: []domain.Button{
			{Label: "Open ticket", ID: domain.NewCustomID(domain.ActionCreateTicket, "panel"),
				Style: domain.ButtonPrimary},
		},
	}
}

const emptyRanking = "Nothing to rank yet."

func FormatSuggestionRanking(r domain.Ranking[domain.RankedSuggestion]) string {
	if r.Empty() {
		return emptyRanking
	}

	var sb strings.Builder
	sb.WriteString("**Top suggestions**\n")
	for i, e := range r.Entries {
		fmt.Fprintf(&sb, "%d. %s (%d votes) by %s\n", i+1, truncateText(e.Text, 80), e.Votes, e.Author)
	}
	writeMalformed(&sb, r.Malformed)

	return sb.String()
}

func FormatReviewRanking(r domain.Ranking[domain.RankedReview]) string {
	if r.Empty() {
		return emptyRanking
	}

	var sb strings.Builder
	sb.WriteString("**Top reviews**\n")
	for i, e := range r.Entries {
		fmt.Fprintf(&sb, "%d. %s %s by %s\n", i+1, FormatRating(e.Rating), e.Title, e.Author)
	}
	writeMalformed(&sb, r.Malformed)

	return sb.String()
}

func writeMalformed(sb *strings.Builder, n int) {
	if n > 0 {
		fmt.Fprintf(sb, "_%d post(s) could not be read._\n", n)
	}
}

func truncateText(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
