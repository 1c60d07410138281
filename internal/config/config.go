package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string        `yaml:"env" env:"ENV" env-default:"local"`
	DB         DB            `yaml:"db"`
	HTTPServer HTTPServer    `yaml:"http_server"`
	TokenTTL   time.Duration `yaml:"token_ttl" env-default:"12h"`
	Secret     string        `yaml:"-" env:"JWT_SECRET"`
	Zoom       Zoom          `yaml:"zoom"`
	Display    Display       `yaml:"display"`
}

type DB struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Username string `yaml:"username" env:"POSTGRES_USER" env-default:"postgres"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-default:"recordings"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
	Password string `yaml:"-" env:"POSTGRES_PASSWORD"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Zoom struct {
	APIURL       string        `yaml:"api_url" env-default:"https://api.zoom.us/v2"`
	TokenURL     string        `yaml:"token_url" env-default:"https://zoom.us/oauth/token"`
	AccountID    string        `yaml:"account_id" env:"ZOOM_ACCOUNT_ID"`
	ClientID     string        `yaml:"client_id" env:"ZOOM_CLIENT_ID"`
	ClientSecret string        `yaml:"-" env:"ZOOM_CLIENT_SECRET"`
	Timeout      time.Duration `yaml:"timeout" env-default:"15s"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

type Display struct {
	TimeZone string `yaml:"time_zone" env-default:"America/Los_Angeles"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}

// fetchConfigPath takes the --config flag first, then CONFIG_PATH.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
