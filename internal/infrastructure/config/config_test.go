package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func load(t *testing.T, env map[string]string) *Config {
	t.Helper()
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t, map[string]string{})

	if cfg.Port != "8080" || cfg.StoreDriver != StoreMongo || cfg.BcryptCost != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("TokenTTL = %v", cfg.TokenTTL)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Max != 100 || cfg.RateLimit.Window != 5*time.Minute {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Upload.MaxBytes != 5<<20 || cfg.Upload.URLPrefix != "/uploads/job_cards" || cfg.Upload.Driver != UploadDisk {
		t.Fatalf("unexpected upload defaults: %+v", cfg.Upload)
	}
	if cfg.TrustProxyHeaders {
		t.Fatal("proxy headers must not be trusted by default")
	}
	if cfg.AMQP.URL != "" || cfg.Redis.Addr != "" {
		t.Fatal("optional backends must default to disabled")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg := load(t, map[string]string{
		"STORE_DRIVER":      "postgres",
		"DATABASE_URL":      "postgres://u:p@db/jc",
		"RATE_LIMIT_WINDOW": "1m",
		"BCRYPT_COST":       "12",
		"AMQP_URL":          "amqp://guest:guest@mq:5672/",
	})
	if cfg.StoreDriver != StorePostgres || cfg.Postgres.URL != "postgres://u:p@db/jc" {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
	if cfg.RateLimit.Window != time.Minute || cfg.BcryptCost != 12 || cfg.AMQP.Exchange != "jobcards" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestLoad_BadValue(t *testing.T) {
	if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{"BCRYPT_COST": "ten"})); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"ok", map[string]string{"JWT_SECRET": "s"}, ""},
		{"no secret", map[string]string{}, "JWT_SECRET"},
		{"bad store", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"}, "STORE_DRIVER"},
		{"bad upload", map[string]string{"JWT_SECRET": "s", "UPLOAD_DRIVER": "ftp"}, "UPLOAD_DRIVER"},
		{"s3 without bucket", map[string]string{"JWT_SECRET": "s", "UPLOAD_DRIVER": "s3"}, "S3_BUCKET"},
		{"zero cost", map[string]string{"JWT_SECRET": "s", "BCRYPT_COST": "0"}, "BCRYPT_COST"},
		{"zero limit", map[string]string{"JWT_SECRET": "s", "RATE_LIMIT_MAX": "0"}, "RATE_LIMIT"},
		{"limit off", map[string]string{"JWT_SECRET": "s", "RATE_LIMIT_ENABLED": "false", "RATE_LIMIT_MAX": "0"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := load(t, tc.env).Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate = %v, want error mentioning %s", err, tc.wantErr)
			}
		})
	}
}
