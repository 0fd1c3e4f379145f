// Package mocks provides in-memory test doubles for the store interfaces.
// They enforce the same error contracts as the postgres implementations so
// service and handler tests exercise real error paths without a database.
package mocks
