package internalcheck

import (
	"testing"

	"golang.org/x/tools/go/packages"
)

// checked lists the package patterns the policy applies to.
var checked = []string{
	"github.com/latticekem/kyber-go/pkg/kyber/...",
	"github.com/latticekem/kyber-go/internal/...",
}

func load(t *testing.T, mode packages.LoadMode) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{Mode: mode | packages.NeedFiles | packages.NeedName}
	pkgs, err := packages.Load(cfg, checked...)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("packages contain errors")
	}
	return pkgs
}
