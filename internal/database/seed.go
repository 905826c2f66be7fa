// internal/database/seed.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
)

var defaultCategories = []struct {
	Name        string
	Description string
}{
	{"Men's Clothing", "Shirts, trousers, suits and outerwear for men"},
	{"Women's Clothing", "Dresses, tops, skirts and outerwear for women"},
	{"Shoes", "Footwear for every occasion"},
	{"Accessories", "Bags, belts, hats and jewellery"},
	{"Vintage", "Pre-owned and classic pieces"},
}

// SeedInitialData creates the bootstrap admin account and the default
// categories when they do not exist yet. It is safe to run on every start.
func SeedInitialData(ctx context.Context, store repository.Store, adminEmail, adminPassword string) error {
	logrus.Info("Seeding initial data...")

	_, err := store.Users().FindByEmail(ctx, adminEmail)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		admin := &models.User{
			FirstName: "System",
			LastName:  "Administrator",
			Email:     adminEmail,
			Role:      models.UserRoleAdmin,
			IsActive:  true,
		}
		if err := admin.SetPassword(adminPassword); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}
		if err := store.Users().Create(ctx, admin); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		logrus.WithField("email", adminEmail).Info("Default admin user created")
	case err != nil:
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	for i, c := range defaultCategories {
		slug := models.Slugify(c.Name)
		if _, err := store.Categories().FindBySlug(ctx, slug); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to look up category %s: %w", slug, err)
		}

		category := &models.Category{
			Name:        c.Name,
			Slug:        slug,
			Description: c.Description,
			IsActive:    true,
			SortOrder:   i,
		}
		if err := store.Categories().Create(ctx, category); err != nil {
			logrus.WithError(err).WithField("slug", slug).Warn("Failed to create category")
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}
