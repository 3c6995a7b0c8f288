// Package archive copies finished sessions to durable object storage. It
// re-exports the core store abstraction and selects a driver from settings.
package archive

import (
	"cogbattery/internal/archive/core"
)

type (
	// Driver identifies an archive backend.
	Driver = core.Driver
	// PutOptions configures an object write.
	PutOptions = core.PutOptions
	// Object describes stored object metadata.
	Object = core.Object
	// Store is the interface implemented by every archive driver.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrExists     = core.ErrExists
	ErrNotFound   = core.ErrNotFound
	ErrInvalidKey = core.ErrInvalidKey
)
