package persistence

import (
	"fmt"

	"github.com/grocerypos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table from the gorm models. Production
// postgres deployments use the SQL migrations instead; this path serves sqlite
// terminals and tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
