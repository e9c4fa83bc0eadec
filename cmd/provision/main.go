// Command provision installs or uninstalls the login attempt store and
// issues bearer tokens for the admin and event endpoints.
//
//	provision install
//	provision uninstall
//	provision token -type collector -subject auth-host
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/loginlog/internal/auth"
	"github.com/BradenHooton/loginlog/internal/config"
	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/BradenHooton/loginlog/internal/repositories"
	"github.com/BradenHooton/loginlog/internal/services"
	pkglogger "github.com/BradenHooton/loginlog/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("provisioning failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: provision install|uninstall|token")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	switch args[0] {
	case "install", "uninstall":
		return provision(args[0], cfg, logger)
	case "token":
		return issueToken(args[1:], cfg, out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func provision(action string, cfg *config.Config, logger *slog.Logger) error {
	store, err := repositories.Open(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	svc := services.NewProvisioningService(store.Attempts, store.Settings, pkglogger.NewAuditLogger(logger, cfg.Server.Env), logger)
	if action == "uninstall" {
		return svc.Uninstall(ctx)
	}
	return svc.Install(ctx)
}

func issueToken(args []string, cfg *config.Config, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenType := fs.String("type", models.TokenTypeCollector, "token type: admin or collector")
	subject := fs.String("subject", "", "who the token is issued to")
	expiry := fs.Duration("expiry", cfg.Auth.TokenExpiry, "token lifetime, 0 for no expiry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return fmt.Errorf("-subject is required")
	}

	token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, *expiry).GenerateToken(*tokenType, *subject)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
