// Package testutil holds fixtures shared by package tests: temporary
// ledgers, deterministic owner keys, and quiet runtimes.
package testutil
