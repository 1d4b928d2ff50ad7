package port

import (
	"context"
	"time"
	"tradebot/internal/core/domain"
)

type Command interface {
	// Respond handles an invocation within the given timeout and answers it through reply.
	Respond(ctx context.Context, timeout time.Duration, inv *domain.Invocation, reply Replier) error
	// GetCommand retrieves the command name associated with a specific command handler.
	GetCommand() string
	// Description is the help text shown in the platform's command menu.
	Description() string
}

type CommandRegistry interface {
	// Register adds a new command handler to the command registry.
	Register(handler Command)
	// Get retrieves a registered Command based on its name or returns an error if not found.
	Get(command string) (Command, error)
	// ListCommands returns the registered commands sorted by name.
	ListCommands() []Command
}
