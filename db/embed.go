// Package db embeds the SQL schema applied on startup.
package db

import _ "embed"

// Schema contains the DDL for the catalog, coupon, snapshot and order tables.
//
//go:embed migrations/001_schema.sql
var Schema string
