package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"parlayz/cmd"
	"parlayz/config"
	"parlayz/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 {
		var err error
		switch os.Args[1] {
		case "migrate":
			err = handleMigrationCommand()
		case "token":
			err = handleTokenCommand(ctx)
		case "admin":
			err = handleAdminCommand(ctx)
		case "serve":
			err = cmd.Run(ctx)
		default:
			err = fmt.Errorf("unknown command: %s (want serve, migrate, token or admin)", os.Args[1])
		}
		if err != nil {
			log.Fatalf("%s: %v", os.Args[1], err)
		}
		return
	}

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: parlayz migrate [up|down|status] [args...]")
	}

	databaseURL := config.Get().GetDatabaseURL()
	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp(databaseURL)
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(databaseURL, steps)
	case "status":
		return database.MigrateStatus(databaseURL)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleTokenCommand(ctx context.Context) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: parlayz token <username>")
	}
	return cmd.MintToken(ctx, os.Args[2])
}

func handleAdminCommand(ctx context.Context) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: parlayz admin <username> [grant|revoke]")
	}
	grant := true
	if len(os.Args) > 3 {
		switch os.Args[3] {
		case "grant":
		case "revoke":
			grant = false
		default:
			return fmt.Errorf("unknown admin action: %s", os.Args[3])
		}
	}
	return cmd.SetAdmin(ctx, os.Args[2], grant)
}
