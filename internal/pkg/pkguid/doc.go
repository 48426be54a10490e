// Package pkguid provides helpers for generating unique identifiers.
//
// String IDs (UUIDv7) identify accounts and requests; numeric Snowflake IDs
// are used for table rows that do not carry their own primary key.
package pkguid
