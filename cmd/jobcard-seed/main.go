// Command jobcard-seed creates a principal in the configured store, or prints
// a bcrypt hash for operators with --hash-only.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
	"github.com/autoworks/jobcard-service/internal/core/service"
	"github.com/autoworks/jobcard-service/internal/infrastructure/config"
	"github.com/autoworks/jobcard-service/internal/infrastructure/db/mongo"
	"github.com/autoworks/jobcard-service/internal/infrastructure/db/postgres"
	"github.com/autoworks/jobcard-service/pkg/logger"
)

const passwordEnv = "ADMIN_SEED_PASSWORD"

type options struct {
	username string
	role     string
	password string
	hashOnly bool
}

func main() {
	_ = godotenv.Load()

	var opts options
	flags := pflag.NewFlagSet("jobcard-seed", pflag.ExitOnError)
	flags.StringVar(&opts.username, "username", "admin", "username of the principal to create")
	flags.StringVar(&opts.role, "role", string(domain.RoleAdmin), "role: admin or employee")
	flags.StringVar(&opts.password, "password", "", "password (defaults to $"+passwordEnv+")")
	flags.BoolVar(&opts.hashOnly, "hash-only", false, "print a bcrypt hash of the password and exit")
	_ = flags.Parse(os.Args[1:])

	if opts.password == "" {
		opts.password = os.Getenv(passwordEnv)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "jobcard-seed: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.password == "" {
		return fmt.Errorf("a password is required: pass --password or set %s", passwordEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	creds := service.NewCredentialStore(cfg.BcryptCost)

	if opts.hashOnly {
		hash, err := creds.Hash(opts.password)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "jobcard-seed"})

	repo, closeStore, err := openPrincipals(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Register never issues tokens.
	auth := service.NewAuthService(repo, creds, service.NewTokenIssuer("unused", 0), log)
	p, err := auth.Register(ctx, opts.username, opts.password, domain.Role(opts.role))
	if err != nil {
		return err
	}

	log.Info().Str("id", p.ID).Str("username", p.Username).Str("role", string(p.Role)).Msg("principal seeded")
	return nil
}

func openPrincipals(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.PrincipalRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			closeFn()
			return nil, nil, err
		}
		return mongo.NewPrincipalRepository(db), closeFn, nil
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL}, log)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPrincipalRepository(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("STORE_DRIVER %q cannot be seeded", cfg.StoreDriver)
	}
}
