package config

import (
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callcenter", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret", JWTIssuer: "iss", JWTAudience: "aud"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callcenter", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Authz.LookupTimeout != 3*time.Second {
		t.Fatalf("expected lookup timeout default, got %v", c.Authz.LookupTimeout)
	}
}

func TestValidate_ProductionRejectsHeaderIdentity(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		DB:    DBConfig{Host: "db", Port: 5432, User: "postgres", Password: "x", Name: "callcenter", SSLMode: "require"},
		Redis: RedisConfig{Host: "redis", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret", JWTIssuer: "iss", JWTAudience: "aud", AllowHeaderIdentity: true},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for header identity in production")
	}
}

func TestValidate_MightyCallBaseURLRequiresKey(t *testing.T) {
	c := Config{
		App:        AppConfig{Env: "dev", Port: 8080},
		DB:         DBConfig{Host: "db", Port: 5432, User: "postgres", Password: "x", Name: "callcenter"},
		Redis:      RedisConfig{Host: "redis", Port: 6379},
		Auth:       AuthConfig{JWTSecret: "secret"},
		MightyCall: MightyCallConfig{BaseURL: "https://api.example.test"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for base url without api key")
	}
}
