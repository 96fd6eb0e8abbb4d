package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Log        LogConfig        `envPrefix:"AUTHKIT_LOG_"`
	Token      TokenConfig      `envPrefix:"AUTHKIT_TOKEN_"`
	Auth       AuthConfig       `envPrefix:"AUTHKIT_AUTH_"`
	Revocation RevocationConfig `envPrefix:"AUTHKIT_REVOCATION_"`
	Database   DatabaseConfig   `envPrefix:"AUTHKIT_DATABASE_"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type TokenConfig struct {
	Secret        string        `env:"SECRET"`
	Issuer        string        `env:"ISSUER" envDefault:"authkit"`
	AccessExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"168h"`
}

type AuthConfig struct {
	FailureDelay time.Duration `env:"FAILURE_DELAY" envDefault:"3s"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"10"`
}

type RevocationConfig struct {
	Store         string `env:"STORE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix     string `env:"KEY_PREFIX" envDefault:"authkit:family"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"authkit.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}
