package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Load reads an optional .env file and config.toml into the global viper instance.
// Environment variables such as DISCORD_TOKEN override file values.
func Load(path string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		log.Warn().Msg("no config file found, using defaults and environment")
		return nil
	}

	return err
}

func setDefaults() {
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("bot.pretty_log", false)
	viper.SetDefault("bot.handler_timeout", 10*time.Second)

	viper.SetDefault("suggestions.vote_emoji", "👍")
	viper.SetDefault("suggestions.downvote_emoji", "👎")
	viper.SetDefault("suggestions.scan_limit", 100)

	viper.SetDefault("tickets.close_delay", 5*time.Second)
	viper.SetDefault("tickets.restrict_close", false)

	viper.SetDefault("cleanup.schedule", "*/10 * * * *")
	viper.SetDefault("cleanup.scan_limit", 100)

	viper.SetDefault("retry.attempts", 3)
	viper.SetDefault("retry.delay", 500*time.Millisecond)
}

// Require reports every listed key that has no value.
func Require(keys ...string) error {
	var errs []error
	for _, k := range keys {
		if viper.GetString(k) == "" {
			errs = append(errs, errors.New("missing config value "+k))
		}
	}

	return errors.Join(errs...)
}

func ParseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetupLogging applies the configured level and output format to the global logger.
func SetupLogging() {
	zerolog.SetGlobalLevel(ParseLogLevel(viper.GetString("bot.log_level")))

	if viper.GetBool("bot.pretty_log") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
