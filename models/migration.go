package models

import (
	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
)

// MigrateTable migrates all tables. The unique (customer_id, period) index on
// invoices backs the billing engine's idempotence check against concurrent
// scheduler instances.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Package{},
		&Customer{},
		&Invoice{},
		&Payment{},
		&Setting{},
		&User{},
	)
	utils.ErrorPanic(err)
}
