package domain

import "errors"

// Notice converts an error into the short text shown to the user who triggered it.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSelfReference):
		return "You can't do that with your own listing."
	case errors.Is(err, ErrAuthorization):
		return "You are not allowed to do that."
	case errors.Is(err, ErrNotFound):
		return "That no longer exists."
	case errors.Is(err, ErrDuplicate):
		return "You have already done that."
	case errors.Is(err, ErrMalformedID):
		return "That button is broken, please try again."
	case errors.Is(err, ErrValidation):
		return "Invalid input: " + rootMessage(err)
	case errors.Is(err, ErrExternalCollaborator):
		return "Something went wrong talking to Discord, please try again later."
	default:
		return "Something went wrong."
	}
}

func rootMessage(err error) string {
	msg := err.Error()
	prefix := ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
