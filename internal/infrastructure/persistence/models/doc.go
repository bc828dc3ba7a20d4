// Package models contains the GORM persistence models for the POS inventory
// sync tables. Domain types in internal/domain/integration carry no GORM tags;
// each model converts with ToDomain and a matching ...FromDomain constructor.
//
// Tables:
//   - pos_sales_channels: channel settings, credentials and location UUIDs
//   - catalog_products: local catalog rows with their POS UUIDs
//   - pos_sales_channel_inventory: last synced balance per product
//   - pos_inventory_sync_runs: one row per sync run
package models
