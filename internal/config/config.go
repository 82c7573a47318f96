package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type MediaConfig struct {
	// UpdateInterval is the shared-media owner's broadcast period.
	UpdateInterval time.Duration `mapstructure:"update_interval"`
	// DriftThreshold is the tolerated follower drift in seconds before
	// a corrective seek; zero derives it from UpdateInterval.
	DriftThreshold float64 `mapstructure:"drift_threshold"`
}

type AgentConfig struct {
	ServerURL string `mapstructure:"server_url"`
	Room      string `mapstructure:"room"`
	Name      string `mapstructure:"name"`
	// ShareURL, when set, is shared into the room right after joining.
	ShareURL string `mapstructure:"share_url"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	Media      MediaConfig   `mapstructure:"media"`
	Agent      AgentConfig   `mapstructure:"agent"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("media.update_interval", "5s")
	v.SetDefault("media.drift_threshold", 0.0)
	v.SetDefault("agent.server_url", "ws://localhost:8080")
	v.SetDefault("agent.room", "lobby")
	v.SetDefault("agent.name", "agent")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
