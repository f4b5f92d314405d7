package main

import (
	"errors"
	"fmt"
	"os"

	"stipend/internal/config"
	"stipend/internal/database"
	"stipend/internal/logger"
	"stipend/internal/models"

	"gorm.io/gorm"
)

// defaultCategories is the fixed category list, in checklist display order.
var defaultCategories = []models.ExpenseCategory{
	{Name: "Food", Description: "Meals, groceries and snacks"},
	{Name: "Transport", Description: "Bus, train and ride fares"},
	{Name: "Entertainment", Description: "Movies, games and outings"},
	{Name: "Shopping", Description: "Clothes and personal items"},
	{Name: "Bills", Description: "Phone, subscriptions and utilities"},
	{Name: "Education", Description: "Books, supplies and course fees"},
	{Name: "Health", Description: "Medicine and medical visits"},
	{Name: "Other", Description: "Anything that fits nowhere else"},
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Seed error: %v", err)
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

	db := dbManager.DB()
	created := 0

	err = db.Transaction(func(tx *gorm.DB) error {
		for i, seed := range defaultCategories {
			category, added, err := ensureCategory(tx, seed)
			if err != nil {
				return err
			}
			if added {
				created++
			}
			if err := ensureChecklistItem(tx, category.ID, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	logger.Get().Infof("Seed complete: %d new categories, %d total", created, len(defaultCategories))
	return nil
}

// ensureCategory creates the category if it does not exist yet. Matching is
// by name, so re-running the seeder is safe.
func ensureCategory(tx *gorm.DB, seed models.ExpenseCategory) (*models.ExpenseCategory, bool, error) {
	var category models.ExpenseCategory
	err := tx.Where("name = ?", seed.Name).First(&category).Error
	if err == nil {
		return &category, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	category = seed
	if err := tx.Create(&category).Error; err != nil {
		return nil, false, err
	}
	return &category, true, nil
}

func ensureChecklistItem(tx *gorm.DB, categoryID uint, displayOrder int) error {
	var item models.ChecklistItem
	err := tx.Where("category_id = ?", categoryID).First(&item).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	item = models.ChecklistItem{
		CategoryID:   categoryID,
		DisplayOrder: displayOrder,
		IsActive:     true,
	}
	return tx.Create(&item).Error
}
