package config

import (
	"os"
	"sync"

	"taskboard/logutils"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Postgres struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		DBName   string `yaml:"dbname"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
		TimeZone string `yaml:"TimeZone"`
	} `yaml:"postgres"`
	Auth struct {
		Secret       string `yaml:"secret"`
		TokenTTLDays int    `yaml:"tokenTTLDays"`
	} `yaml:"auth"`
	Storage struct {
		Root          string   `yaml:"root"`
		MaxUploadSize int64    `yaml:"maxUploadSize"`
		AllowedMime   []string `yaml:"allowedMime"`
		BaseURL       string   `yaml:"baseURL"`
	} `yaml:"storage"`
	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

// initConfig reads the configuration file, with env overrides for the
// values that differ between deployments.
func initConfig() *Config {
	config := &Config{}
	configPath := "./etc/config.yaml"
	if p := os.Getenv("TASKBOARD_CONFIG"); p != "" {
		configPath = p
	}

	err := readConfig(configPath, config)
	if err != nil {
		logutils.Log.Error("init config", err)
		panic(err)
	}
	applyDefaults(config)
	return config
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return err
	}
	if secret := os.Getenv("TASKBOARD_AUTH_SECRET"); secret != "" {
		config.Auth.Secret = secret
	}
	if password := os.Getenv("TASKBOARD_DB_PASSWORD"); password != "" {
		config.Postgres.Password = password
	}
	return nil
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = ":7340"
	}
	if config.Auth.TokenTTLDays == 0 {
		config.Auth.TokenTTLDays = 30
	}
	if config.Storage.Root == "" {
		config.Storage.Root = "./storage"
	}
	if config.Storage.MaxUploadSize == 0 {
		config.Storage.MaxUploadSize = 10 << 20
	}
}
