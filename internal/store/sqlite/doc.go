// Package sqlite persists preferences and delivery history in a single
// SQLite database using the pure-Go modernc.org/sqlite driver.
package sqlite
