package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"rummikub/internal/game"
	"rummikub/internal/log"
)

const envPrefix = "RUMMIKUB"

type Config struct {
	AppName string     `mapstructure:"appName"`
	Log     LogConf    `mapstructure:"log"`
	Server  ServerConf `mapstructure:"server"`
	HTTP    HTTPConf   `mapstructure:"http"`
	Game    GameConf   `mapstructure:"game"`
	Cache   CacheConf  `mapstructure:"cache"`
	Nats    NatsConf   `mapstructure:"nats"`
	Redis   RedisConf  `mapstructure:"redis"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
}

// ServerConf is the TCP line-protocol listener.
type ServerConf struct {
	Addr string `mapstructure:"addr"`
}

// HTTPConf serves /health, /ws and the runtime visualiser. Empty Addr
// disables it.
type HTTPConf struct {
	Addr string `mapstructure:"addr"`
}

type GameConf struct {
	MinPlayers         int `mapstructure:"minPlayers"`
	MaxPlayers         int `mapstructure:"maxPlayers"`
	HandSize           int `mapstructure:"handSize"`
	OpeningMinimum     int `mapstructure:"openingMinimum"`
	JokerPenalty       int `mapstructure:"jokerPenalty"`
	TurnTimeoutSeconds int `mapstructure:"turnTimeoutSeconds"`
}

func (g GameConf) Rules() game.Rules {
	return game.Rules{
		MinPlayers:     g.MinPlayers,
		MaxPlayers:     g.MaxPlayers,
		HandSize:       g.HandSize,
		OpeningMinimum: g.OpeningMinimum,
		JokerPenalty:   g.JokerPenalty,
		TurnTimeout:    time.Duration(g.TurnTimeoutSeconds) * time.Second,
	}
}

// CacheConf sizes the rearrangement memo. MaxCost 0 disables it.
type CacheConf struct {
	MaxCost    int64 `mapstructure:"maxCost"`
	TTLSeconds int   `mapstructure:"ttlSeconds"`
}

// NatsConf enables round-result events when URL is set.
type NatsConf struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// RedisConf enables the leaderboard when Addr is set.
type RedisConf struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	LeaderboardKey string `mapstructure:"leaderboardKey"`
}

func setDefaults(v *viper.Viper) {
	rules := game.DefaultRules()
	v.SetDefault("appName", "rummikub-server")
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", ":9000")
	v.SetDefault("http.addr", ":9001")
	v.SetDefault("game.minPlayers", rules.MinPlayers)
	v.SetDefault("game.maxPlayers", rules.MaxPlayers)
	v.SetDefault("game.handSize", rules.HandSize)
	v.SetDefault("game.openingMinimum", rules.OpeningMinimum)
	v.SetDefault("game.jokerPenalty", rules.JokerPenalty)
	v.SetDefault("game.turnTimeoutSeconds", 0)
	v.SetDefault("cache.maxCost", 10000)
	v.SetDefault("cache.ttlSeconds", 600)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "rummikub.round.settled")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.leaderboardKey", "rummikub:leaderboard")
}

func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if configFile == "" {
		return v, nil
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Game.Rules().Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	return &cfg, nil
}

// Load reads configFile over the built-in defaults. An empty path uses
// defaults and RUMMIKUB_* environment variables only.
func Load(configFile string) (*Config, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch calls fn with the re-read config each time configFile changes.
// Broken edits are logged and skipped.
func Watch(configFile string, fn func(*Config)) error {
	if configFile == "" {
		return nil
	}
	v, err := newViper(configFile)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			log.Warn("config %s changed but is invalid: %v", e.Name, err)
			return
		}
		log.Info("config %s reloaded (%s)", e.Name, e.Op)
		fn(cfg)
	})
	v.WatchConfig()
	return nil
}
