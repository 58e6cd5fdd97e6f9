//go:build !unix

package adapter

import "os"

// Advisory locking is only implemented for unix; elsewhere runs are not serialized.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
