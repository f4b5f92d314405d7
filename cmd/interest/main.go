package main

import (
	"fmt"
	"os"
	"time"

	"stipend/internal/config"
	"stipend/internal/database"
	"stipend/internal/logger"
	"stipend/internal/services"
)

// Monthly interest job. Intended to run from cron near the start of each
// month; re-running within the same month is a no-op per account.
func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Interest job error: %v", err)
	}
}

func run() error {
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	investmentService := services.NewInvestmentService(dbManager.DB())

	credited, err := investmentService.CreditAllInterest(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("interest run failed: %w", err)
	}

	logger.Get().Infof("Interest credited to %d account(s)", credited)
	return nil
}
