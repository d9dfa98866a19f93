// Command createadmin creates an active staff account. Staff cannot sign up
// through the API.
//
//	createadmin -email admin@example.com -name "Expo Office"
//
// The password is read from EXHIBITOR_ADMIN_PASSWORD, or from the -password flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/core/ports"
	"github.com/boothfair/exhibitor-portal/internal/core/service"
	"github.com/boothfair/exhibitor-portal/internal/infrastructure/config"
	mongodb "github.com/boothfair/exhibitor-portal/internal/infrastructure/db/mongo"
	"github.com/boothfair/exhibitor-portal/internal/infrastructure/mail"
	"github.com/boothfair/exhibitor-portal/pkg/logger"
)

func main() {
	email := flag.String("email", "", "staff email address")
	name := flag.String("name", "", "full name")
	password := flag.String("password", os.Getenv("EXHIBITOR_ADMIN_PASSWORD"), "password (default $EXHIBITOR_ADMIN_PASSWORD)")
	flag.Parse()

	log := logger.Init(logger.Options{Pretty: true, Service: "createadmin"})

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, log, ports.StaffInput{Email: *email, Password: *password, FullName: *name}); err != nil {
		log.Fatal().Err(err).Msg("staff account not created")
	}
}

func run(ctx context.Context, log zerolog.Logger, input ports.StaffInput) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	users := mongodb.NewUserRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users); err != nil {
		return err
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		return err
	}
	tokens := service.NewTokenService(mongodb.NewTokenRepository(db), users, log)
	accounts := service.NewAccountService(users, tokens, mail.NewLogNotifier(renderer, log), nil, cfg.BaseURL, log)

	user, err := accounts.CreateStaff(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("staff account %s created for %s\n", user.ID, user.Email)
	return nil
}
