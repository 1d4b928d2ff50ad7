package service

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"tradebot/internal/core/domain"
)

// RankSuggestions orders the suggestion posts in messages by the count of voteEmoji, newest first
// on ties, and keeps the top entries. Posts without author or text are counted as malformed and
// skipped.
func RankSuggestions(messages []domain.RenderedMessage, voteEmoji string) domain.Ranking[domain.RankedSuggestion] {
	var r domain.Ranking[domain.RankedSuggestion]

	for _, m := range messages {
		if m.Kind != domain.KindSuggestion {
			continue
		}

		if m.Author == "" || m.Text == "" {
			r.Malformed++
			continue
		}

		r.Matched++
		r.Entries = append(r.Entries, domain.RankedSuggestion{
			MessageID: m.ID,
			Author:    m.Author,
			Text:      m.Text,
			Votes:     max(m.Reactions[voteEmoji], 0),
			CreatedAt: m.CreatedAt,
		})
	}

	slices.SortStableFunc(r.Entries, func(a, b domain.RankedSuggestion) int {
		if c := cmp.Compare(b.Votes, a.Votes); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	r.Entries = truncate(r.Entries)

	return r
}

// RankReviews orders the review posts in messages by rating, newest first on ties.
func RankReviews(messages []domain.RenderedMessage) domain.Ranking[domain.RankedReview] {
	var r domain.Ranking[domain.RankedReview]

	for _, m := range messages {
		if m.Kind != domain.KindReview {
			continue
		}

		rating, ok := ParseRatingField(m.Fields[RatingField])
		if m.Author == "" || m.Title == "" || !ok {
			r.Malformed++
			continue
		}

		r.Matched++
		r.Entries = append(r.Entries, domain.RankedReview{
			MessageID: m.ID,
			Author:    m.Author,
			Title:     m.Title,
			Rating:    rating,
			CreatedAt: m.CreatedAt,
		})
	}

	slices.SortStableFunc(r.Entries, func(a, b domain.RankedReview) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	r.Entries = truncate(r.Entries)

	return r
}

func truncate[T any](entries []T) []T {
	if len(entries) > domain.RankingSize {
		return entries[:domain.RankingSize]
	}
	return entries
}

// ParseRatingField reads a rating rendered by FormatRating.
func ParseRatingField(value string) (int, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}

	n, total, ok := strings.Cut(fields[len(fields)-1], "/")
	if !ok || total != strconv.Itoa(domain.MaxRating) {
		return 0, false
	}

	rating, err := ParseRating(n)
	if err != nil || rating < domain.MinRating || rating > domain.MaxRating {
		return 0, false
	}

	return rating, true
}
