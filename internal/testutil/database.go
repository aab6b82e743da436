package testutil

import (
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// SetupTestDB connects to the test database. It expects a MySQL on
// localhost:3306 with a database named 'stockroom_test' and skips the test
// otherwise.
func SetupTestDB(t *testing.T) *sqlx.DB {
	dsn := "root:@tcp(localhost:3306)/stockroom_test?parseTime=true&clientFoundRows=true"
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every table and closes the connection.
func CleanupTestDB(t *testing.T, db *sqlx.DB) {
	if db == nil {
		return
	}

	tables := []string{
		"OrderItems", "Orders", "Bid", "InventoryJournal", "ProductAttributeValue", "BundleProduct",
		"CombinationWarehouseInventory", "ProductAttributeCombination", "ProductWarehouseInventory", "Product",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the schema used by the repositories.
func SetupTestTables(t *testing.T, db *sqlx.DB) {
	tables := []struct {
		name  string
		query string
	}{
		{"Product", `
	CREATE TABLE IF NOT EXISTS Product (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		productTypeId INT NOT NULL DEFAULT 5,
		manageInventoryMethodId INT NOT NULL DEFAULT 0,
		stockQuantity INT NOT NULL DEFAULT 0,
		reservedQuantity INT NOT NULL DEFAULT 0,
		useMultipleWarehouses TINYINT(1) NOT NULL DEFAULT 0,
		warehouseId VARCHAR(36) NOT NULL DEFAULT '',
		minStockQuantity INT NOT NULL DEFAULT 0,
		lowStock TINYINT(1) NOT NULL DEFAULT 0,
		lowStockActivityId INT NOT NULL DEFAULT 0,
		notifyAdminForQuantityBelow INT NOT NULL DEFAULT 0,
		backorderModeId INT NOT NULL DEFAULT 0,
		disableBuyButton TINYINT(1) NOT NULL DEFAULT 0,
		published TINYINT(1) NOT NULL DEFAULT 1,
		displayStockAvailability TINYINT(1) NOT NULL DEFAULT 0,
		displayStockQuantity TINYINT(1) NOT NULL DEFAULT 0,
		allowOutOfStockOrders TINYINT(1) NOT NULL DEFAULT 0,
		highestBid DECIMAL(18,4) NOT NULL DEFAULT 0,
		highestBidder VARCHAR(36) NOT NULL DEFAULT '',
		auctionEnded TINYINT(1) NOT NULL DEFAULT 0,
		availableEndDateTimeUtc DATETIME NULL,
		updatedOnUtc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_auction (productTypeId, auctionEnded)
	)`},
		{"ProductWarehouseInventory", `
	CREATE TABLE IF NOT EXISTS ProductWarehouseInventory (
		productId VARCHAR(36) NOT NULL,
		warehouseId VARCHAR(36) NOT NULL,
		stockQuantity INT NOT NULL DEFAULT 0,
		reservedQuantity INT NOT NULL DEFAULT 0,
		PRIMARY KEY (productId, warehouseId)
	)`},
		{"ProductAttributeCombination", `
	CREATE TABLE IF NOT EXISTS ProductAttributeCombination (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		productId VARCHAR(36) NOT NULL,
		attributes JSON NOT NULL,
		stockQuantity INT NOT NULL DEFAULT 0,
		reservedQuantity INT NOT NULL DEFAULT 0,
		notifyAdminForQuantityBelow INT NOT NULL DEFAULT 0,
		allowOutOfStockOrders TINYINT(1) NOT NULL DEFAULT 0,
		INDEX idx_product (productId)
	)`},
		{"CombinationWarehouseInventory", `
	CREATE TABLE IF NOT EXISTS CombinationWarehouseInventory (
		combinationId VARCHAR(36) NOT NULL,
		warehouseId VARCHAR(36) NOT NULL,
		stockQuantity INT NOT NULL DEFAULT 0,
		reservedQuantity INT NOT NULL DEFAULT 0,
		PRIMARY KEY (combinationId, warehouseId)
	)`},
		{"BundleProduct", `
	CREATE TABLE IF NOT EXISTS BundleProduct (
		bundleProductId VARCHAR(36) NOT NULL,
		productId VARCHAR(36) NOT NULL,
		quantity INT NOT NULL DEFAULT 1,
		displayOrder INT NOT NULL DEFAULT 0,
		PRIMARY KEY (bundleProductId, productId)
	)`},
		{"ProductAttributeValue", `
	CREATE TABLE IF NOT EXISTS ProductAttributeValue (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		productId VARCHAR(36) NOT NULL,
		attributeMappingId VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		attributeValueTypeId INT NOT NULL DEFAULT 0,
		associatedProductId VARCHAR(36) NOT NULL DEFAULT '',
		quantity INT NOT NULL DEFAULT 1,
		INDEX idx_product (productId)
	)`},
		{"InventoryJournal", `
	CREATE TABLE IF NOT EXISTS InventoryJournal (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		objectType VARCHAR(50) NOT NULL,
		objectId VARCHAR(36) NOT NULL,
		positionId VARCHAR(36) NOT NULL,
		productId VARCHAR(36) NOT NULL,
		warehouseId VARCHAR(36) NOT NULL DEFAULT '',
		attributes JSON NOT NULL,
		reference VARCHAR(100) NOT NULL DEFAULT '',
		inQty INT NOT NULL DEFAULT 0,
		outQty INT NOT NULL DEFAULT 0,
		createdOnUtc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_product_position (productId, positionId),
		INDEX idx_position (positionId)
	)`},
		{"Bid", `
	CREATE TABLE IF NOT EXISTS Bid (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		productId VARCHAR(36) NOT NULL,
		customerId VARCHAR(36) NOT NULL,
		storeId VARCHAR(36) NOT NULL DEFAULT '',
		warehouseId VARCHAR(36) NOT NULL DEFAULT '',
		orderId VARCHAR(36) NOT NULL DEFAULT '',
		amount DECIMAL(18,4) NOT NULL,
		bin TINYINT(1) NOT NULL DEFAULT 0,
		date DATETIME(6) NOT NULL,
		INDEX idx_product (productId),
		INDEX idx_customer (customerId),
		INDEX idx_order (orderId)
	)`},
		{"Orders", `
	CREATE TABLE IF NOT EXISTS Orders (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		customerId VARCHAR(36) NOT NULL DEFAULT '',
		storeId VARCHAR(36) NOT NULL DEFAULT '',
		warehouseId VARCHAR(36) NOT NULL DEFAULT '',
		status VARCHAR(50) NOT NULL DEFAULT 'PENDING',
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`},
		{"OrderItems", `
	CREATE TABLE IF NOT EXISTS OrderItems (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		orderId VARCHAR(36) NOT NULL,
		productId VARCHAR(36) NOT NULL,
		quantity INT NOT NULL DEFAULT 1,
		warehouseId VARCHAR(36) NOT NULL DEFAULT '',
		attributes JSON NOT NULL,
		reserved TINYINT(1) NOT NULL DEFAULT 0,
		FOREIGN KEY (orderId) REFERENCES Orders(id) ON DELETE CASCADE,
		INDEX idx_order (orderId)
	)`},
	}

	for _, tbl := range tables {
		if _, err := db.Exec(tbl.query); err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
