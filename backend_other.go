//go:build !linux

package displaywatch

func newDefaultBackend(string) (Provider, Hook, func(), error) {
	return nil, nil, nil, ErrUnsupportedPlatform
}
