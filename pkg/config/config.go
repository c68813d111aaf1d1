package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Rooms     RoomsConfig
	KV        KVConfig
	Documents DocumentsConfig
	DB        DBConfig
	Mongo     MongoConfig
	Wiki      WikiConfig
	Log       LogConfig
}

type ServerConfig struct {
	Address string
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// ErrInsecureSecret 表示 JWT 密鑰為空、過短或是範例值
var ErrInsecureSecret = errors.New("auth.jwt_secret is empty or a placeholder; set WIKIRACE_AUTH_JWT_SECRET")

const minSecretLength = 16

var placeholderSecrets = map[string]bool{
	"change-me":       true,
	"your_jwt_secret": true,
	"secret":          true,
}

// CheckSecret 確認密鑰可以用於簽發 token，伺服器啟動前必須通過
func (c AuthConfig) CheckSecret() error {
	secret := strings.TrimSpace(c.JWTSecret)
	if placeholderSecrets[strings.ToLower(secret)] || len(secret) < minSecretLength {
		return fmt.Errorf("%w (length %d, need at least %d)", ErrInsecureSecret, len(secret), minSecretLength)
	}
	return nil
}

// RoomsConfig 控制房間 ID 範圍與狀態機的行為
type RoomsConfig struct {
	MinID       int `mapstructure:"min_id"`
	MaxID       int `mapstructure:"max_id"`
	MaxAttempts int `mapstructure:"max_attempts"`
	// Strict 為 true 時：加入時檢查房間是否已結束、記錄投降、ENDED 為終止狀態
	Strict bool
}

// KVConfig 是房間狀態所使用的 badger 設定
type KVConfig struct {
	Path     string
	InMemory bool `mapstructure:"in_memory"`
}

type DocumentsConfig struct {
	Driver string // "postgres" 或 "mongo"
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

type MongoConfig struct {
	URI      string
	Database string
}

type WikiConfig struct {
	RequestDelay time.Duration `mapstructure:"request_delay"`
	Timeout      time.Duration
	UserAgent    string `mapstructure:"user_agent"`
	// MaxHops 限制提交路徑中間條目的數量
	MaxHops int `mapstructure:"max_hops"`
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8000")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 240*time.Hour)
	v.SetDefault("rooms.min_id", 10000)
	v.SetDefault("rooms.max_id", 99999)
	v.SetDefault("rooms.max_attempts", 5)
	v.SetDefault("rooms.strict", true)
	v.SetDefault("kv.path", "./data/rooms")
	v.SetDefault("kv.in_memory", false)
	v.SetDefault("documents.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "wikirace")
	v.SetDefault("db.port", 5432)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "wikirace")
	v.SetDefault("wiki.request_delay", time.Second)
	v.SetDefault("wiki.timeout", 10*time.Second)
	v.SetDefault("wiki.user_agent", "wikirace/1.0")
	v.SetDefault("wiki.max_hops", 64)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load 讀取 ./pkg/config/config.yaml，檔案不存在時只使用預設值與環境變數
func Load() (*Config, error) {
	return LoadFrom("./pkg/config")
}

// LoadFrom 從指定目錄載入配置，環境變數以 WIKIRACE_ 開頭覆寫，例如 WIKIRACE_SERVER_ADDRESS
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("wikirace")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Rooms.MinID > config.Rooms.MaxID {
		return nil, errors.New("rooms.min_id must not exceed rooms.max_id")
	}
	if config.Rooms.MaxAttempts < 1 {
		return nil, errors.New("rooms.max_attempts must be at least 1")
	}
	if config.Wiki.MaxHops < 1 {
		return nil, errors.New("wiki.max_hops must be at least 1")
	}

	return &config, nil
}
