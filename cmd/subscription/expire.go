package main

import (
	"context"
	"log"
	"time"

	"github.com/jobbridge/job-platform/internal/config"
	"github.com/jobbridge/job-platform/internal/database"
	"github.com/jobbridge/job-platform/internal/subscription"
)

// Marks active subscriptions past their end date as expired.
// Scheduled to run once a day.
func main() {
	log.Println("expiring overdue subscriptions")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config %v", err)
	}
	conn, err := database.GetDbConn(
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)

	subRepo := subscription.NewRepository(conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	expired, err := subRepo.ExpireOverdue(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("expired %d subscriptions\n", expired)
}
