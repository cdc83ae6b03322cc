// Package config loads the thief runner's settings.
//
// Sources, lowest precedence first: built-in defaults, the YAML file named by
// --config, the dotenv file named by --env-file, THIEF_* environment
// variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/thief/engine"
	"github.com/jason-s-yu/thief/engine/agent"
	"github.com/jason-s-yu/thief/service/internal/historian"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. THIEF_AI_TIER.
const EnvPrefix = "THIEF"

type Config struct {
	Rules RulesConfig `mapstructure:"rules"`
	AI    AIConfig    `mapstructure:"ai"`
	Table TableConfig `mapstructure:"table"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Log      LogConfig      `mapstructure:"log"`
	Report   ReportConfig   `mapstructure:"report"`
}

type RulesConfig struct {
	Players                int    `mapstructure:"players"`
	HandSize               int    `mapstructure:"hand_size"`
	Decks                  int    `mapstructure:"decks"`
	JokersPerDeck          int    `mapstructure:"jokers_per_deck"`
	StalemateRounds        int    `mapstructure:"stalemate_rounds"`
	StalemateCardThreshold int    `mapstructure:"stalemate_card_threshold"`
	Language               string `mapstructure:"language"`
}

type AIConfig struct {
	Tier             string        `mapstructure:"tier"`
	StealProbability float64       `mapstructure:"steal_probability"`
	Delay            time.Duration `mapstructure:"delay"`
}

type TableConfig struct {
	Seed   uint64 `mapstructure:"seed"` // 0 seeds from the clock
	Series bool   `mapstructure:"series"`
	Human  bool   `mapstructure:"human"` // seat 0 is played from the terminal
}

// RedisConfig enables the Redis action stream when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	Encoding string `mapstructure:"encoding"` // json or proto
}

// NATSConfig enables the NATS action stream when URL is set.
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Prefix        string        `mapstructure:"prefix"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Encoding      string        `mapstructure:"encoding"` // json or proto
}

// PostgresConfig enables the action table when DSN is set.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// ReportConfig selects how the runner prints the final results.
type ReportConfig struct {
	Format string `mapstructure:"format"` // text, json or yaml
	// Replay prints the stored actions of this game ID instead of playing.
	Replay string `mapstructure:"replay"`
}

func setDefaults(v *viper.Viper) {
	r := engine.DefaultHouseRules()
	v.SetDefault("rules.players", r.NumPlayers)
	v.SetDefault("rules.hand_size", r.HandSize)
	v.SetDefault("rules.decks", r.Decks)
	v.SetDefault("rules.jokers_per_deck", r.JokersPerDeck)
	v.SetDefault("rules.stalemate_rounds", r.StalemateRounds)
	v.SetDefault("rules.stalemate_card_threshold", r.StalemateCardThreshold)
	v.SetDefault("rules.language", r.Language)

	v.SetDefault("ai.tier", agent.TierOptimal.String())
	v.SetDefault("ai.steal_probability", agent.DefaultStealProbability)
	v.SetDefault("ai.delay", 800*time.Millisecond)

	v.SetDefault("table.seed", 0)
	v.SetDefault("table.series", false)
	v.SetDefault("table.human", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "")
	v.SetDefault("redis.encoding", string(historian.EncodingJSON))

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.prefix", "")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.encoding", string(historian.EncodingJSON))

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("report.format", "text")
	v.SetDefault("report.replay", "")
}

// flagKeys maps each command-line flag to its configuration key.
var flagKeys = map[string]string{
	"players":           "rules.players",
	"hand-size":         "rules.hand_size",
	"decks":             "rules.decks",
	"jokers":            "rules.jokers_per_deck",
	"language":          "rules.language",
	"tier":              "ai.tier",
	"steal-probability": "ai.steal_probability",
	"ai-delay":          "ai.delay",
	"seed":              "table.seed",
	"series":            "table.series",
	"human":             "table.human",
	"redis-addr":        "redis.addr",
	"nats-url":          "nats.url",
	"postgres-dsn":      "postgres.dsn",
	"output":            "report.format",
	"replay":            "report.replay",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

// NewFlagSet declares the runner's flags.
func NewFlagSet(name string) *pflag.FlagSet {
	r := engine.DefaultHouseRules()
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String("config", "", "YAML configuration file")
	flags.String("env-file", ".env", "dotenv file read before the environment")
	flags.IntP("players", "n", r.NumPlayers, "number of seats (2-4)")
	flags.Int("hand-size", r.HandSize, "cards dealt per player each round")
	flags.Int("decks", r.Decks, "52-card packs in play")
	flags.Int("jokers", r.JokersPerDeck, "jokers per pack")
	flags.String("language", r.Language, "event log language (en, cs)")
	flags.StringP("tier", "t", agent.TierOptimal.String(), "computer difficulty: easy, medium, optimal")
	flags.Float64("steal-probability", agent.DefaultStealProbability, "chance a medium computer considers stealing")
	flags.Duration("ai-delay", 800*time.Millisecond, "pause before each computer move")
	flags.Uint64("seed", 0, "random seed (0 uses the clock)")
	flags.Bool("series", false, "play one game per seat")
	flags.Bool("human", false, "play seat 0 from the terminal")
	flags.String("redis-addr", "", "Redis address for the action stream")
	flags.String("nats-url", "", "NATS URL for the action stream")
	flags.String("postgres-dsn", "", "Postgres DSN for the action table")
	flags.StringP("output", "o", "text", "result format: text, json or yaml")
	flags.String("replay", "", "print the stored actions of a game ID (needs --postgres-dsn)")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "text", "text or json")
	return flags
}

// Load parses args and merges every configuration source.
func Load(args []string) (*Config, error) {
	flags := NewFlagSet("thief")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return LoadFlags(flags)
}

// LoadFlags merges every configuration source using an already parsed flag set
// built by NewFlagSet.
func LoadFlags(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if path, _ := flags.GetString("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the rules, the computer settings and the log settings.
func (c *Config) Validate() error {
	rules := c.HouseRules()
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if _, err := c.AgentConfig(); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: want text or json", c.Log.Format)
	}
	switch c.Report.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("report format %q: want text, json or yaml", c.Report.Format)
	}
	if _, err := historian.ParseEncoding(c.Redis.Encoding); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if _, err := historian.ParseEncoding(c.NATS.Encoding); err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	if c.Report.Replay != "" {
		if _, err := uuid.Parse(c.Report.Replay); err != nil {
			return fmt.Errorf("replay game id: %w", err)
		}
		if c.Postgres.DSN == "" {
			return errors.New("replay needs a postgres dsn")
		}
	}
	return nil
}

// HouseRules converts the rules section.
func (c *Config) HouseRules() engine.HouseRules {
	return engine.HouseRules{
		NumPlayers:             c.Rules.Players,
		HandSize:               c.Rules.HandSize,
		Decks:                  c.Rules.Decks,
		JokersPerDeck:          c.Rules.JokersPerDeck,
		StalemateRounds:        c.Rules.StalemateRounds,
		StalemateCardThreshold: c.Rules.StalemateCardThreshold,
		Language:               c.Rules.Language,
	}
}

// AgentConfig converts the ai section.
func (c *Config) AgentConfig() (agent.Config, error) {
	tier, err := agent.ParseTier(c.AI.Tier)
	if err != nil {
		return agent.Config{}, err
	}
	ac := agent.Config{Tier: tier, StealProbability: c.AI.StealProbability}
	return ac, ac.Validate()
}

// Seats returns the seating for the configured player count.
func (c *Config) Seats() []engine.Seat {
	n := c.Rules.Players
	if n == 0 {
		n = engine.MinPlayers
	}
	seats := make([]engine.Seat, n)
	if c.Table.Human && len(seats) > 0 {
		seats[0].Human = true
	}
	return seats
}

// NewLogger builds a logger for the log section.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
