package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Minio     MinioConfig     `yaml:"minio"`
	SignNow   SignNowConfig   `yaml:"signnow"`
	SMS       SMSConfig       `yaml:"sms"`
	Templates TemplatesConfig `yaml:"templates"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type SignNowConfig struct {
	APIURL      string `yaml:"api_url"`
	AppURL      string `yaml:"app_url"`
	APIKey      string `yaml:"api_key"`
	SenderEmail string `yaml:"sender_email"`
}

type SMSConfig struct {
	ProviderURL string `yaml:"provider_url"`
	APIToken    string `yaml:"api_token"`
	FromNumber  string `yaml:"from_number"`
}

type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"` // admin, sales_rep
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.SignNow.APIURL == "" {
		cfg.SignNow.APIURL = "https://api.signnow.com"
	}
	if cfg.SignNow.AppURL == "" {
		cfg.SignNow.AppURL = "https://app.signnow.com"
	}
	if cfg.SignNow.SenderEmail == "" {
		cfg.SignNow.SenderEmail = "noreply@example.com"
	}
	if cfg.Templates.Dir == "" {
		cfg.Templates.Dir = "./pdfs"
	}

	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
