package cmd

import (
	"context"
	"fmt"

	"parlayz/api"
	"parlayz/config"
	"parlayz/database"
	"parlayz/events"
	"parlayz/repository"
	"parlayz/service"

	log "github.com/sirupsen/logrus"
)

// withUserService runs fn against a short-lived connection
func withUserService(ctx context.Context, cfg *config.Config, fn func(service.UserService) error) error {
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	bus := events.NewBus()
	defer bus.Wait()
	return fn(service.NewUserService(repository.NewUnitOfWorkFactory(db, bus), cfg.StartingBalance))
}

// MintToken prints a signed identity token for username
func MintToken(ctx context.Context, username string) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	return withUserService(ctx, cfg, func(users service.UserService) error {
		user, err := users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		token, expiresAt, err := api.JWT{Secret: []byte(cfg.JWTSecret), TokenTTL: cfg.JWTTokenTTL}.Sign(user)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		log.WithFields(log.Fields{
			"user_id":    user.ID,
			"admin":      user.IsAdmin,
			"expires_at": expiresAt,
		}).Info("Issued token")
		fmt.Println(token)
		return nil
	})
}

// SetAdmin grants or revokes the administrator capability for username
func SetAdmin(ctx context.Context, username string, grant bool) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	return withUserService(ctx, cfg, func(users service.UserService) error {
		user, err := users.SetAdmin(ctx, username, grant)
		if err != nil {
			return err
		}
		fmt.Printf("%s admin=%t\n", user.Username, user.IsAdmin)
		return nil
	})
}
