package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type TriviaConfig struct {
	// 为空时不请求外部题库，只使用 FallbackText
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FallbackText string        `mapstructure:"fallback_text"`
}

type WebsocketConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `mapstructure:"heartbeat_timeout"`
	// 每个连接每秒允许的入站消息数
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type AppConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	StaticDir string `mapstructure:"static_dir"`

	// 大厅阶段医生角色的默认开关，重置游戏时恢复为该值
	DoctorEnabled bool `mapstructure:"doctor_enabled"`

	QueueSize  int `mapstructure:"queue_size"`
	OutboxSize int `mapstructure:"outbox_size"`

	Trivia    TriviaConfig    `mapstructure:"trivia"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
}

const DefaultFallbackQuestion = "Who is most likely to survive a zombie apocalypse?"

func InitConfig() *AppConfig {
	config, err := Load(".")
	if err != nil {
		panic(fmt.Errorf("加载配置失败: %w", err))
	}

	return config
}

// Load reads app_config.json from dir when present and overlays MAFIA_* environment variables.
func Load(dir string) (*AppConfig, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("MAFIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "")
	v.SetDefault("doctor_enabled", false)
	v.SetDefault("queue_size", 256)
	v.SetDefault("outbox_size", 64)

	v.SetDefault("trivia.url", "")
	v.SetDefault("trivia.timeout", 5*time.Second)
	v.SetDefault("trivia.fallback_text", DefaultFallbackQuestion)

	v.SetDefault("websocket.heartbeat_interval", 30*time.Second)
	v.SetDefault("websocket.heartbeat_timeout", 45*time.Second)
	v.SetDefault("websocket.rate_limit", 5.0)
	v.SetDefault("websocket.rate_burst", 10)
}

func (c *AppConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("端口无效: %d", c.Port)
	}

	if c.QueueSize <= 0 || c.OutboxSize <= 0 {
		return errors.New("queue_size 和 outbox_size 必须为正数")
	}

	if c.Websocket.HeartbeatTimeout <= c.Websocket.HeartbeatInterval {
		return errors.New("websocket.heartbeat_timeout 必须大于 heartbeat_interval")
	}

	return nil
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
