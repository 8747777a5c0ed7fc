// Package core holds the translocation record service.
//
// [Service] is the single entry point used by the HTTP handlers and the
// translocctl CLI. It validates API input, delegates persistence to a
// [Store] backend and runs spreadsheet imports through the importer
// package before committing them with [Store.ReplaceAll].
//
// # Stores
//
// Backends live under internal/store: MongoDB (default), Postgres and an
// in-memory map for tests and local runs. Every backend honours the same
// contract: Update and Delete return [ErrNotFound] when no record matched,
// and ReplaceAll leaves exactly the given records behind.
//
// # Imports
//
// Imports are replace-on-import: a successful import discards every stored
// record, even when the file produced no valid rows. [Service.PreviewImport]
// runs the same pipeline without committing. Concurrent imports within one
// process are serialized by an [ImportLimiter]; imports from different
// processes sharing one store may still interleave.
//
// # Errors
//
// Technical errors are mapped to user messages with support codes by
// [MapError]. See error_messages.go for the code reference.
package core
