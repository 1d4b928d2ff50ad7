package domain

import "errors"

var (
	ErrValidation           = errors.New("invalid input")
	ErrAuthorization        = errors.New("not permitted")
	ErrNotFound             = errors.New("not found")
	ErrDuplicate            = errors.New("already exists")
	ErrSelfReference        = errors.New("cannot target yourself")
	ErrMalformedID          = errors.New("malformed interaction id")
	ErrExternalCollaborator = errors.New("messaging platform call failed")
)

const (
	MaxWantsLength       = 100
	MaxOffersLength      = 100
	MaxDescriptionLength = 500
	MaxSubjectLength     = 100
	MaxTicketBodyLength  = 1000
	MaxReviewTitleLength = 100
	MaxReviewBodyLength  = 1000
	MaxSuggestionLength  = 1000

	MinRating = 1
	MaxRating = 5

	// RankingSize is the number of entries kept by the ranking views.
	RankingSize = 10
)
