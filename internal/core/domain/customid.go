package domain

import (
	"fmt"
	"strings"
)

type Action int

const (
	ActionUnknown Action = iota
	ActionContact
	ActionCancel
	ActionCloseTicket
	ActionContactOwner
	ActionAgreeTicket
	ActionCreateTicket
)

const customIDSeparator = "_"

var actionNames = map[Action]string{
	ActionContact:      "contact",
	ActionCancel:       "cancel",
	ActionCloseTicket:  "closeTicket",
	ActionContactOwner: "contactOwner",
	ActionAgreeTicket:  "agreeTicket",
	ActionCreateTicket: "createTicket",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, n := range actionNames {
		m[n] = a
	}
	return m
}()

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// CustomID is the decoded form of a button identifier: an action and the subject it targets.
type CustomID struct {
	Action  Action
	Subject string
	// Raw holds the action token as received, kept for logging unknown actions.
	Raw string
}

func NewCustomID(action Action, subject string) CustomID {
	return CustomID{Action: action, Subject: subject, Raw: action.String()}
}

// String encodes the id for the platform. Action names never contain the separator, so the
// subject may.
func (c CustomID) String() string {
	return c.Action.String() + customIDSeparator + c.Subject
}

// ParseCustomID splits an identifier on the first separator. Unknown action tokens decode to
// ActionUnknown without error.
func ParseCustomID(id string) (CustomID, error) {
	action, subject, ok := strings.Cut(id, customIDSeparator)
	if !ok {
		return CustomID{}, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}

	return CustomID{
		Action:  actionsByName[action],
		Subject: subject,
		Raw:     action,
	}, nil
}
