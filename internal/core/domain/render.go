package domain

// PostKind tags a rendered post so it can be recognised when scanned back from a channel.
type PostKind string

const (
	KindNone       PostKind = ""
	KindTrade      PostKind = "trade"
	KindSuggestion PostKind = "suggestion"
	KindReview     PostKind = "review"
	KindTicket     PostKind = "ticket"
	KindPanel      PostKind = "panel"
)

type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

type Button struct {
	Label string
	ID    CustomID
	Style ButtonStyle
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Post is a platform independent description of a rich message.
type Post struct {
	Kind        PostKind
	Author      string
	Title       string
	Description string
	Fields      []Field
	ImageURL    string
	Color       int
	Buttons     []Button
}

// FieldValue returns the value of the first field called name.
func (p Post) FieldValue(name string) (string, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// WithField returns a copy of the post with the named field replaced or appended.
func (p Post) WithField(f Field) Post {
	fields := make([]Field, 0, len(p.Fields)+1)
	replaced := false
	for _, existing := range p.Fields {
		if existing.Name == f.Name {
			fields = append(fields, f)
			replaced = true
			continue
		}
		fields = append(fields, existing)
	}
	if !replaced {
		fields = append(fields, f)
	}
	p.Fields = fields
	return p
}

type FormID string

const (
	TradeForm      FormID = "tradeForm"
	SuggestionForm FormID = "suggestionForm"
	ReviewForm     FormID = "reviewForm"
	TicketForm     FormID = "ticketForm"
)

type Input struct {
	ID          string
	Label       string
	Placeholder string
	Long        bool
	Required    bool
	MaxLength   int
}

type Form struct {
	ID     FormID
	Title  string
	Inputs []Input
}

const (
	InputWants       = "wants"
	InputOffers      = "offers"
	InputDescription = "description"
	InputImage       = "image"
	InputSuggestion  = "suggestion"
	InputRating      = "rating"
	InputTitle       = "title"
	InputBody        = "body"
	InputSubject     = "subject"
)

func NewTradeForm() Form {
	return Form{
		ID:    TradeForm,
		Title: "Create a trade",
		Inputs: []Input{
			{ID: InputWants, Label: "What do you want?", Required: true, MaxLength: MaxWantsLength},
			{ID: InputOffers, Label: "What do you offer?", Required: true, MaxLength: MaxOffersLength},
			{ID: InputDescription, Label: "Description", Long: true, MaxLength: MaxDescriptionLength},
			{ID: InputImage, Label: "Image URL", Placeholder: "https://example.com/item.png"},
		},
	}
}

func NewSuggestionForm() Form {
	return Form{
		ID:    SuggestionForm,
		Title: "Make a suggestion",
		Inputs: []Input{
			{ID: InputSuggestion, Label: "Your suggestion", Long: true, Required: true,
				MaxLength: MaxSuggestionLength},
		},
	}
}

func NewReviewForm() Form {
	return Form{
		ID:    ReviewForm,
		Title: "Leave a review",
		Inputs: []Input{
			{ID: InputRating, Label: "Rating (1-5)", Required: true, MaxLength: 1},
			{ID: InputTitle, Label: "Title", Required: true, MaxLength: MaxReviewTitleLength},
			{ID: InputBody, Label: "Review", Long: true, Required: true, MaxLength: MaxReviewBodyLength},
		},
	}
}

func NewTicketForm() Form {
	return Form{
		ID:    TicketForm,
		Title: "Open a support ticket",
		Inputs: []Input{
			{ID: InputSubject, Label: "Subject", Required: true, MaxLength: MaxSubjectLength},
			{ID: InputDescription, Label: "Describe your issue", Long: true, Required: true,
				MaxLength: MaxTicketBodyLength},
		},
	}
}
