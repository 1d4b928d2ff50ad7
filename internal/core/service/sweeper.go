package service

import (
	"context"
	"fmt"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Sweeper periodically removes messages not written by the bot from designated channels.
type Sweeper struct {
	messenger port.Messenger
	schedule  string
	channels  []string
	limit     int
	now       func() time.Time
}

func NewSweeper(messenger port.Messenger) (*Sweeper, error) {
	schedule := viper.GetString("cleanup.schedule")
	if !gronx.New().IsValid(schedule) {
		return nil, fmt.Errorf("invalid cleanup schedule %q", schedule)
	}

	return &Sweeper{
		messenger: messenger,
		schedule:  schedule,
		channels:  viper.GetStringSlice("cleanup.channels"),
		limit:     viper.GetInt("cleanup.scan_limit"),
		now:       time.Now,
	}, nil
}

// Run sweeps on every tick of the schedule until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if len(s.channels) == 0 {
		log.Info().Msg("no cleanup channels configured, sweeper disabled")
		return
	}

	for {
		next, err := s.nextSweep()
		if err != nil {
			log.Error().Err(err).Str("schedule", s.schedule).Msg("stopping sweeper")
			return
		}

		log.Debug().Time("next", next).Msg("running sweep timer")
		select {
		case <-time.After(time.Until(next)):
			n := s.Sweep(ctx)
			log.Debug().Int("deleted", n).Msg("sweep done")
		case <-ctx.Done():
			log.Debug().Msg("stopping sweeper")
			return
		}
	}
}

// Sweep deletes every recent non-bot message of the cleanup channels and returns how many
// deletions succeeded. Failed deletions are ignored, the message may already be gone.
func (s *Sweeper) Sweep(ctx context.Context) int {
	deleted := 0

	for _, channelID := range s.channels {
		l := log.With().Str("channelId", channelID).Logger()

		messages, err := s.messenger.FetchRecentMessages(ctx, channelID, s.limit)
		if err != nil {
			l.Warn().Err(err).Msg("failed to fetch messages for cleanup")
			continue
		}

		for _, m := range messages {
			if m.AuthorIsBot {
				continue
			}

			err := s.messenger.DeleteMessage(ctx, domain.MessageRef{ChannelID: channelID, MessageID: m.ID})
			if err != nil {
				l.Debug().Err(err).Str("messageId", m.ID).Msg("ignoring failed delete")
				continue
			}
			deleted++
		}
	}

	return deleted
}

func (s *Sweeper) nextSweep() (time.Time, error) {
	return gronx.NextTickAfter(s.schedule, s.now(), false)
}
