//go:build windows

package transport

import "errors"

// OpenPTY always fails on Windows; the supervisor falls back to pipes.
func OpenPTY() (Channel, error) {
	return nil, errors.New("pty transport unsupported on windows")
}
