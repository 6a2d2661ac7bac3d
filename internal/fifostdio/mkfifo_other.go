//go:build !unix

package fifostdio

import "fmt"

func mkfifo(path string, mode uint32) error {
	return fmt.Errorf("fifostdio: named FIFOs are not supported on this platform")
}
