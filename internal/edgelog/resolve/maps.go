package resolve

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Mapping is one file-backed, executable-or-readable line of a maps file.
type Mapping struct {
	// Start is the first address of the mapping.
	Start uint64
	// End is one past the last address of the mapping.
	End uint64
	// Offset is the file offset mapped at Start.
	Offset uint64
	// Exec is set for executable mappings.
	Exec bool
	// Path is the mapped file.
	Path string
}

// Contains reports whether addr falls inside the mapping.
func (m *Mapping) Contains(addr uint64) bool {
	return addr >= m.Start && addr < m.End
}

func trimMappingPath(path string) string {
	// See path_with_deleted in linux/fs/d_path.c
	return strings.TrimSuffix(path, " (deleted)")
}

// parseMappings parses the /proc/<pid>/maps format. Anonymous and special
// mappings ([heap], [stack], [vdso], ...) are skipped: they have no module
// to attribute an address to. Malformed lines are counted and skipped.
func parseMappings(r io.Reader) ([]Mapping, uint32, error) {
	numParseErrors := uint32(0)
	mappings := make([]Mapping, 0, 32)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 8192), 64*1024)
	for scanner.Scan() {
		// address perms offset dev inode path
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			numParseErrors++
			continue
		}
		if len(fields) < 6 {
			// Anonymous mapping.
			continue
		}
		path := trimMappingPath(strings.Join(fields[5:], " "))
		if path == "" || path[0] != '/' {
			continue
		}

		start, end, ok := strings.Cut(fields[0], "-")
		if !ok {
			numParseErrors++
			continue
		}
		perms := fields[1]
		if len(perms) < 3 {
			numParseErrors++
			continue
		}
		if perms[0] != 'r' && perms[2] != 'x' {
			continue
		}

		vaddr, err := strconv.ParseUint(start, 16, 64)
		if err != nil {
			numParseErrors++
			continue
		}
		vend, err := strconv.ParseUint(end, 16, 64)
		if err != nil {
			numParseErrors++
			continue
		}
		offset, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			numParseErrors++
			continue
		}

		mappings = append(mappings, Mapping{
			Start:  vaddr,
			End:    vend,
			Offset: offset,
			Exec:   perms[2] == 'x',
			Path:   path,
		})
	}
	return mappings, numParseErrors, scanner.Err()
}

// findModule returns the module owning addr within mappings.
//
// The base is the load address of the file: the start of its mapping at
// file offset zero, or the lowest start of any of its mappings minus that
// mapping's offset when the first page is not mapped.
func findModule(mappings []Mapping, addr uint64) Module {
	var owner *Mapping
	for i := range mappings {
		if mappings[i].Contains(addr) {
			owner = &mappings[i]
			break
		}
	}
	if owner == nil {
		return Module{}
	}

	base := uint64(0)
	found := false
	for i := range mappings {
		m := &mappings[i]
		if m.Path != owner.Path || m.Offset > m.Start {
			continue
		}
		candidate := m.Start - m.Offset
		if !found || candidate < base {
			base = candidate
			found = true
		}
	}
	if !found {
		return Module{}
	}

	return Module{Base: uintptr(base), Path: owner.Path}
}
