// Package core holds the check-in business operations shared by the HTTP
// server: participant CRUD over a [repository.Repository], walk-up
// registration, server-side check-in, and the spreadsheet import flow.
//
// # Import
//
// Imports run in two steps so staff can review a file before anything is
// written:
//
//  1. [Service.PreviewImport] reads a CSV or XLSX upload (size-limited,
//     BOM-stripped, UTF-8 sanitized), maps its header and normalizes every
//     row into a participant. Nothing is stored.
//  2. [Service.SaveImport] deduplicates the preview and inserts it in one
//     bulk call. Rows colliding with stored participants are skipped.
//
// Both steps hold a slot of the [ImportLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code prefix for support reference:
//
//   - DB: storage errors (duplicates, connections, timeouts)
//   - VAL: registration form validation
//   - IMP: import format and concurrency errors
//   - FILE: upload errors (size, type, unreadable)
//   - REQ: malformed API requests
package core
