package config

import (
	"chatcord-backend/internal/models"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

const (
	FriendPolicyDirected  = "directed"
	FriendPolicySymmetric = "symmetric"
)

var defaults = map[string]any{
	"Address":           "127.0.0.1",
	"Port":              "3000",
	"TlsCert":           "",
	"TlsKey":            "",
	"Cors":              false,
	"PrintHttpRequests": false,
	"LogToFile":         false,
	"LogFile":           "logs/app.log",
	"LogMaxSizeMB":      100,
	"LogMaxBackups":     5,
	"LogMaxAgeDays":     30,
	"LogLevel":          "info",
	"JwtSecret":         "",
	"SnowflakeWorkerID": 0,
	"SelfContained":     true,
	"SqlitePath":        "./database.db",
	"DbUser":            "",
	"DbPassword":        "",
	"DbAddress":         "127.0.0.1",
	"DbPort":            "3306",
	"DbDatabase":        "chatcord",
	"RedisAddress":      "localhost:6379",
	"RedisPassword":     "",
	"RedisDB":           0,
	"FriendPolicy":      FriendPolicySymmetric,
	"DefaultAvatar":     "default.webp",
	"MetricsEnabled":    true,
}

// Load reads the json config file at path, a missing file is fine as long
// as the environment provides what's needed. Every key can be overridden
// with an environment variable such as CHATAPP_DBPASSWORD.
func Load(path string) (*models.ConfigFile, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("CHATAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg models.ConfigFile
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := check(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func check(cfg *models.ConfigFile) error {
	if cfg.JwtSecret == "" {
		return fmt.Errorf("JwtSecret must be set")
	}

	switch cfg.FriendPolicy {
	case FriendPolicyDirected, FriendPolicySymmetric:
	default:
		return fmt.Errorf("FriendPolicy must be %q or %q, got %q", FriendPolicyDirected, FriendPolicySymmetric, cfg.FriendPolicy)
	}

	if (cfg.TlsCert == "") != (cfg.TlsKey == "") {
		return fmt.Errorf("TlsCert and TlsKey must be set together")
	}
	return nil
}
