//go:build governance

package core_test

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/leapstack-labs/ocaentry"

// loadModule loads every package of the module with type information.
func loadModule(t *testing.T) (core *packages.Package, others []*packages.Package) {
	t.Helper()

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	for _, p := range pkgs {
		if p.PkgPath == modulePath+"/pkg/core" {
			core = p
			continue
		}
		others = append(others, p)
	}
	if core == nil {
		t.Fatal("Could not find pkg/core")
	}
	return core, others
}

// TestGovernance_CoreUsage reports exported core declarations no other
// package of the module refers to.
func TestGovernance_CoreUsage(t *testing.T) {
	corePkg, others := loadModule(t)

	coreDefs := make(map[types.Object]string)
	scope := corePkg.Types.Scope()
	for _, name := range scope.Names() {
		if obj := scope.Lookup(name); obj.Exported() {
			coreDefs[obj] = name
		}
	}

	used := make(map[string]bool)
	for _, p := range others {
		if p.TypesInfo == nil {
			continue
		}
		for _, obj := range p.TypesInfo.Uses {
			if name, ok := coreDefs[obj]; ok {
				used[name] = true
			}
		}
	}

	for _, name := range coreDefs {
		if !used[name] && !isUsageAllowlisted(name) {
			t.Errorf("UNUSED CORE DECLARATION: 'core.%s' is not referenced outside pkg/core.\n"+
				"   Fix: delete it or move it next to its only caller.", name)
		}
	}
}

// isUsageAllowlisted returns true for declarations that exist for API
// completeness even when the module itself does not call them.
func isUsageAllowlisted(name string) bool {
	allowlist := map[string]bool{
		"AttrType": true, // sealed interface, referenced through its variants
		"RefKind":  true, // only read through RefTarget.Kind
	}
	return allowlist[name]
}

// TestGovernance_NoTypeAliasReexports ensures no package re-exports a core
// type under its own name. Consumers must use core.X directly.
func TestGovernance_NoTypeAliasReexports(t *testing.T) {
	corePkg, others := loadModule(t)

	for _, pkg := range others {
		if len(pkg.Errors) > 0 {
			continue
		}

		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			if !obj.Exported() {
				continue
			}
			typeName, ok := obj.(*types.TypeName)
			if !ok || !typeName.IsAlias() {
				continue
			}
			named, ok := types.Unalias(typeName.Type()).(*types.Named)
			if !ok || named.Obj().Pkg() == nil {
				continue
			}
			if named.Obj().Pkg().Path() == corePkg.PkgPath {
				t.Errorf("PURITY VIOLATION: Package '%s' re-exports type alias '%s'.\n"+
					"   Fix: Remove the alias. Consumers should use core.%s directly.",
					strings.TrimPrefix(pkg.PkgPath, modulePath+"/"), name, named.Obj().Name())
			}
		}
	}
}
