package persistence

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// Only this package may construct session store drivers; everything else goes
// through Open and domain.SessionStore.
func TestOnlyPersistencePackageImportsDrivers(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the whole module")
	}
	const driverPrefix = "cogbattery/internal/infra/persistence"
	const allowedPrefix = "cogbattery/internal/persistence"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "cogbattery/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if strings.HasPrefix(pkg.PkgPath, allowedPrefix) || strings.HasPrefix(pkg.PkgPath, driverPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == driverPrefix || strings.HasPrefix(importPath, driverPrefix+"/") {
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of session store driver: %s", v)
		}
		t.Fatalf("found %d forbidden imports of session store drivers", len(violations))
	}
}
