//go:build !unix

package state

import "os"

// Advisory locking is only available on Unix; elsewhere the last writer wins.

func lockExclusive(*os.File) error { return nil }

func lockShared(*os.File) error { return nil }

func unlock(*os.File) error { return nil }
