package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Federation FederationConfig
	Transport  TransportConfig
	Platform   PlatformConfig
	Sync       SyncConfig
	Robot      RobotConfig
	Runtime    RuntimeConfig
}

type FederationConfig struct {
	// File overrides the built-in federation when set.
	File    string
	Network string
	Active  int
}

type TransportConfig struct {
	SocksProxy string
	Timeout    time.Duration
}

type PlatformConfig struct {
	Native    bool
	Onion     bool
	Origin    string
	StorePath string
}

type SyncConfig struct {
	DefaultInterval time.Duration
	BackoffMin      time.Duration
	BackoffMax      time.Duration
	RequestTimeout  time.Duration
}

type RobotConfig struct {
	Token      string
	PubKey     string
	EncPrivKey string
	// OrderID is tracked on start when non-zero.
	OrderID int64
}

type RuntimeConfig struct {
	Log         LogConfig
	MetricsAddr string

	// ClientVersion overrides the version compared against coordinators.
	ClientVersion string
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Load reads configs/config.yaml from the working directory. A missing file
// leaves the defaults and ROBOSYNC_* environment variables in effect.
func Load() (*Config, error) {
	return LoadFile("")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ROBOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Federation = FederationConfig{
		File:    v.GetString("federation.file"),
		Network: v.GetString("federation.network"),
		Active:  v.GetInt("federation.active"),
	}

	cfg.Transport = TransportConfig{
		SocksProxy: envSub(v, "transport.socks_proxy"),
		Timeout:    v.GetDuration("transport.timeout"),
	}

	cfg.Platform = PlatformConfig{
		Native:    v.GetBool("platform.native"),
		Onion:     v.GetBool("platform.onion"),
		Origin:    v.GetString("platform.origin"),
		StorePath: v.GetString("platform.store_path"),
	}

	cfg.Sync = SyncConfig{
		DefaultInterval: v.GetDuration("sync.default_interval"),
		BackoffMin:      v.GetDuration("sync.backoff_min"),
		BackoffMax:      v.GetDuration("sync.backoff_max"),
		RequestTimeout:  v.GetDuration("sync.request_timeout"),
	}

	cfg.Robot = RobotConfig{
		Token:      envSub(v, "robot.token"),
		PubKey:     envSub(v, "robot.pub_key"),
		EncPrivKey: envSub(v, "robot.enc_priv_key"),
		OrderID:    v.GetInt64("robot.order_id"),
	}

	cfg.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      v.GetString("runtime.log.level"),
			Format:     v.GetString("runtime.log.format"),
			File:       v.GetString("runtime.log.file"),
			MaxSize:    v.GetInt("runtime.log.max_size"),
			MaxBackups: v.GetInt("runtime.log.max_backups"),
			MaxAge:     v.GetInt("runtime.log.max_age"),
			Compress:   v.GetBool("runtime.log.compress"),
		},
		MetricsAddr:   v.GetString("runtime.metrics_addr"),
		ClientVersion: v.GetString("runtime.client_version"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("federation.network", "mainnet")
	v.SetDefault("federation.active", 0)
	v.SetDefault("transport.timeout", 30*time.Second)
	v.SetDefault("platform.native", true)
	v.SetDefault("platform.store_path", "robosync.json")
	v.SetDefault("sync.default_interval", 60*time.Second)
	v.SetDefault("sync.backoff_min", time.Second)
	v.SetDefault("sync.backoff_max", 60*time.Second)
	v.SetDefault("sync.request_timeout", 30*time.Second)
	v.SetDefault("runtime.log.level", "info")
	v.SetDefault("runtime.log.format", "text")
	v.SetDefault("runtime.log.max_size", 100)
	v.SetDefault("runtime.log.max_backups", 3)
	v.SetDefault("runtime.log.max_age", 28)
}

func (c *Config) validate() error {
	if c.Federation.Active < 0 {
		return fmt.Errorf("federation.active must not be negative: %d", c.Federation.Active)
	}
	if c.Platform.Onion && c.Transport.SocksProxy == "" {
		return errors.New("platform.onion requires transport.socks_proxy")
	}
	if c.Sync.BackoffMax < c.Sync.BackoffMin {
		return fmt.Errorf("sync.backoff_max %s is below sync.backoff_min %s", c.Sync.BackoffMax, c.Sync.BackoffMin)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

func envSub(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		return ""
	}

	return envRef.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
