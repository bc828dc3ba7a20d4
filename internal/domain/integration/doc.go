// Package integration contains the POS Integration bounded context.
// This context keeps the stock of the local catalog and the stock of an external
// point-of-sale inventory service in step, one sales channel at a time.
//
// Key concepts:
//   - UUID conversion: local v4 identifiers map to the v1-shaped identifiers the POS expects
//   - CatalogProduct: a catalog record, either standalone or a variant of a parent
//   - ProductGrouping: one group per parent identity, collecting its variants
//   - InventoryContext: per-run state holder over external and local stock
//   - POSSalesChannel: explicit join record between a sales channel and its POS account
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
