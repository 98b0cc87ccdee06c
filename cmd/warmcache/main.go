package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comparateur/internal/app"
	"comparateur/internal/config"
	"comparateur/internal/view"
)

// warmcache поднимает клиент, при наличии учётных данных входит,
// загружает все коллекции в локальные снимки и печатает сводку.
func main() {
	os.Exit(run(os.Args[1:]))
}

// run возвращает код выхода; отложенные Close и stop успевают отработать до os.Exit
func run(args []string) int {
	fs := flag.NewFlagSet("warmcache", flag.ContinueOnError)
	email := fs.String("email", os.Getenv("SELLER_EMAIL"), "seller email for login")
	password := fs.String("password", os.Getenv("SELLER_PASSWORD"), "seller password")
	logout := fs.Bool("logout", false, "drop the stored session and seller caches, then exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	logger := cfg.NewLogger()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer a.Close()

	if *logout {
		a.Logout()
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *email != "" {
		sess, err := a.Auth.Login(ctx, *email, *password)
		if err != nil {
			logger.Error("login failed", "email", *email, "error", err)
			return 1
		}
		logger.Info("logged in", "user", sess.Username)
	}

	start := time.Now()
	if err := a.Refresh(ctx); err != nil {
		logger.Warn("refresh incomplete, serving stale snapshots", "error", err)
	}

	now := time.Now()
	active := view.Compose(a.Offers.Items(), view.OfferFields(now), view.Query{FilterField: "status", FilterValue: "Active"})
	running := view.Compose(a.Promotions.Items(), view.PromotionFields(now), view.Query{FilterField: "status", FilterValue: "Active"})
	logger.Info("cache warmed",
		"took", time.Since(start).Round(time.Millisecond),
		"products", len(a.Products.Items()),
		"categories", len(a.Categories.Items()),
		"offers", len(a.Offers.Items()),
		"activeOffers", active.Total,
		"promotions", len(a.Promotions.Items()),
		"activePromotions", running.Total,
		"authenticated", a.Auth.Session().IsAuthenticated,
	)
	return 0
}
