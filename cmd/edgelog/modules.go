package main

import (
	"debug/buildinfo"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/module"

	"github.com/kolkov/edgelog/internal/edgelog/edge"
)

// Pseudo modules for functions outside the executable's module graph.
var (
	stdModule     = module.Version{Path: "std"}
	unknownModule = module.Version{Path: "?"}
)

// loadModules returns the main module and dependencies recorded in a Go
// executable's build information. Replaced modules are reported under their
// original path with the replacement's version.
func loadModules(exe string) ([]module.Version, error) {
	info, err := buildinfo.ReadFile(exe)
	if err != nil {
		return nil, fmt.Errorf("read build info: %w", err)
	}

	mods := []module.Version{{Path: info.Main.Path, Version: info.Main.Version}}
	for _, dep := range info.Deps {
		v := module.Version{Path: dep.Path, Version: dep.Version}
		if dep.Replace != nil && dep.Replace.Version != "" {
			v.Version = dep.Replace.Version
		}
		mods = append(mods, v)
	}
	return mods, nil
}

// funcPackage returns the import path of a qualified Go function name such
// as "github.com/a/b/pkg.(*T).Method". Dots in the last path element are
// escaped as %2e in symbol names.
func funcPackage(fn string) string {
	slash := strings.LastIndexByte(fn, '/')
	pkg := fn
	if dot := strings.IndexByte(fn[slash+1:], '.'); dot >= 0 {
		pkg = fn[:slash+1+dot]
	}
	return strings.ReplaceAll(pkg, "%2e", ".")
}

// moduleOf returns the module providing pkg: the one with the longest
// matching path prefix. Package main belongs to mods[0], the main module.
func moduleOf(pkg string, mods []module.Version) module.Version {
	if pkg == "main" && len(mods) > 0 {
		return mods[0]
	}
	best := -1
	for i, m := range mods {
		if m.Path == "" || pkg != m.Path && !strings.HasPrefix(pkg, m.Path+"/") {
			continue
		}
		if best < 0 || len(m.Path) > len(mods[best].Path) {
			best = i
		}
	}
	if best >= 0 {
		return mods[best]
	}
	// Standard library import paths have no dot in the first element.
	first, _, _ := strings.Cut(pkg, "/")
	if pkg != "" && !strings.Contains(first, ".") {
		return stdModule
	}
	return unknownModule
}

// moduleCount is the number of records attributed to one module.
type moduleCount struct {
	Module  module.Version
	Records int
}

// attribute counts records per owning module, sorted by module path.
func attribute(records []edge.Record, mods []module.Version) []moduleCount {
	counts := make(map[module.Version]int)
	byFunc := make(map[string]module.Version)
	for _, rec := range records {
		m, ok := byFunc[rec.Function]
		if !ok {
			m = unknownModule
			if rec.Function != "" {
				m = moduleOf(funcPackage(rec.Function), mods)
			}
			byFunc[rec.Function] = m
		}
		counts[m]++
	}

	keys := make([]module.Version, 0, len(counts))
	for m := range counts {
		keys = append(keys, m)
	}
	module.Sort(keys)

	out := make([]moduleCount, 0, len(keys))
	for _, m := range keys {
		out = append(out, moduleCount{Module: m, Records: counts[m]})
	}
	return out
}

func renderModules(counts []moduleCount) string {
	t := newTable("module", "version", "records")
	for _, c := range counts {
		version := c.Module.Version
		if version == "" {
			version = "-"
		}
		t.Row(c.Module.Path, version, strconv.Itoa(c.Records))
	}
	return t.String()
}
