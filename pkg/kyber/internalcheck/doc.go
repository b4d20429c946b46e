// Package internalcheck holds source-level policy tests for the library.
//
// The tests load every non-test package under pkg/kyber and internal with
// golang.org/x/tools/go/packages and walk the typed syntax trees looking for
// patterns that leak secrets through timing or output:
//
//   - == or != applied to byte slices or byte arrays (use crypto/subtle)
//   - %x or %X verbs in fmt and log format strings
//   - imports of math/rand outside tests
//
// # Internal Use Only
//
// The package exports nothing. It exists so that `go test ./...` enforces the
// policy alongside the functional tests.
package internalcheck
