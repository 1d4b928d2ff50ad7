package command

import (
	"errors"
	"slices"
	"strings"
	"tradebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

type Registry struct {
	commands map[string]port.Command
}

func (r *Registry) Register(handler port.Command) {
	if r.commands == nil {
		r.commands = make(map[string]port.Command)
	}

	log.Info().Str("handler", handler.GetCommand()).Msg("adding command handler to registry")
	r.commands[handler.GetCommand()] = handler
}

func (r *Registry) Get(command string) (port.Command, error) {
	log.Debug().Str("command", command).Msg("fetching command handler from registry")

	if r.commands == nil {
		err := errors.New("can't fetch command, registry not initialized")
		return nil, err
	}

	handler, ok := r.commands[strings.ToLower(command)]
	if !ok {
		return nil, errors.New("command not found")
	}

	return handler, nil
}

func (r *Registry) ListCommands() []port.Command {
	list := make([]port.Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}

	slices.SortFunc(list, func(a, b port.Command) int {
		return strings.Compare(a.GetCommand(), b.GetCommand())
	})

	return list
}

// ParseCommand returns the prefixed command word of a plain text message, or "" if the message
// does not start with prefix.
func ParseCommand(prefix, text string) string {
	if !strings.HasPrefix(text, prefix) {
		return ""
	}

	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return ""
	}

	return strings.ToLower(fields[0])
}
