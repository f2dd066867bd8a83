//go:build !linux

package resolve

func readMappings() ([]Mapping, error) {
	return nil, ErrUnsupported
}
