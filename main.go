package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"tradebot/internal/adapters/handler"
	"tradebot/internal/adapters/metrics"
	"tradebot/internal/adapters/sender"
	"tradebot/internal/config"
	"tradebot/internal/core/domain/command"
	"tradebot/internal/core/port"
	"tradebot/internal/core/service"

	"github.com/bwmarrin/discordgo"
	"github.com/go-telegram/bot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "tradebot",
		Short: "Discord community bot for trade listings, suggestions, reviews and support tickets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath); err != nil {
				return fmt.Errorf("could not read config: %w", err)
			}
			config.SetupLogging()
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml (default: ./config.toml)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Connect to the gateway and serve interactions",
		RunE:  run,
	})
	root.AddCommand(&cobra.Command{
		Use:   "sync-commands",
		Short: "Register the slash commands with Discord and exit",
		RunE:  syncCommands,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSession() (*discordgo.Session, error) {
	if err := config.Require("discord.token", "discord.guild_id", "discord.app_id"); err != nil {
		return nil, err
	}

	s, err := discordgo.New("Bot " + viper.GetString("discord.token"))
	if err != nil {
		return nil, fmt.Errorf("failed initializing discord session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	return s, nil
}

// buildRegistry registers every slash command. Stateful commands read from store and publisher.
func buildRegistry(store *service.Store, publisher *service.Publisher, messenger port.Messenger,
	auth service.Authorizer) *command.Registry {
	registry := &command.Registry{}

	registry.Register(command.NewPing("ping"))
	registry.Register(command.NewTrade("trade"))
	registry.Register(command.NewMyTrade(store, "mytrade"))
	registry.Register(command.NewSuggest("suggest"))
	registry.Register(command.NewReview(store, "review"))
	registry.Register(command.NewTopSuggestions(publisher, "topsuggestions"))
	registry.Register(command.NewTopReviews(publisher, "topreviews"))
	registry.Register(command.NewTicketPanel(messenger, auth, "ticketpanel"))

	return registry
}

func registerCommands(s *discordgo.Session, registry port.CommandRegistry) error {
	list := registry.ListCommands()
	cmds := make([]*discordgo.ApplicationCommand, 0, len(list))
	for _, c := range list {
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:        c.GetCommand(),
			Description: c.Description(),
		})
	}

	_, err := s.ApplicationCommandBulkOverwrite(viper.GetString("discord.app_id"),
		viper.GetString("discord.guild_id"), cmds)
	if err != nil {
		return fmt.Errorf("failed registering slash commands: %w", err)
	}

	log.Info().Int("commands", len(cmds)).Msg("slash commands registered")
	return nil
}

func syncCommands(_ *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	// Stateful commands are never invoked here, only their names and descriptions are read.
	registry := buildRegistry(nil, nil, nil, nil)

	return registerCommands(s, registry)
}

func newNotifier() port.StaffNotifier {
	token := viper.GetString("telegram.bot_token")
	if token == "" {
		log.Info().Msg("no telegram token configured, staff relay disabled")
		return nil
	}

	b, err := bot.New(token)
	if err != nil {
		log.Error().Err(err).Msg("failed initializing telegram bot, staff relay disabled")
		return nil
	}

	return sender.NewTelegramRelay(b)
}

func run(_ *cobra.Command, _ []string) error {
	log.Info().Msg("starting tradebot...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := newSession()
	if err != nil {
		return err
	}

	auth, err := service.NewAuthorizer()
	if err != nil {
		return err
	}

	messenger := sender.NewDiscord(s)
	store := service.NewStore(viper.GetString("discord.owner_id"))
	publisher := service.NewPublisher(messenger)

	var m port.Metrics
	if addr := viper.GetString("metrics.listen"); addr != "" {
		prom := metrics.NewPrometheus()
		m = prom
		go func() {
			if err := prom.Serve(ctx, addr); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	router := service.NewRouter(ctx, service.RouterParams{
		Store:     store,
		Messenger: messenger,
		Notifier:  newNotifier(),
		Metrics:   m,
		Auth:      auth,
		Config:    service.LoadRouterConfig(),
	})

	registry := buildRegistry(store, publisher, messenger, auth)

	events := handler.NewDiscord(ctx, handler.Params{
		Commands:  registry,
		Router:    router,
		Reactions: publisher,
		Replier: func(i *discordgo.Interaction) port.Replier {
			return sender.NewInteractionReplier(s, i)
		},
		ChannelReplier: func(channelID, messageID string) port.Replier {
			return sender.NewChannelReplier(s, channelID, messageID)
		},
		Timeout: viper.GetDuration("bot.handler_timeout"),
		OnReady: []func(string){messenger.SetBotUser},
	})

	s.AddHandler(events.OnReady)
	s.AddHandler(events.OnInteraction)
	s.AddHandler(events.OnReactionAdd)
	s.AddHandler(events.OnReactionRemove)
	s.AddHandler(events.OnMessage)

	sweeper, err := service.NewSweeper(messenger)
	if err != nil {
		return err
	}

	if err := s.Open(); err != nil {
		return fmt.Errorf("failed opening gateway connection: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Msg("closing gateway connection")
		}
	}()

	if err := registerCommands(s, registry); err != nil {
		return err
	}

	go sweeper.Run(ctx)

	log.Info().Msg("bot listening")
	<-ctx.Done()
	log.Info().Msg("shutting down")

	return nil
}
