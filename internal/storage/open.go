package storage

import "fmt"

// Open returns the store for driver ("sqlite" or "yaml") rooted at path.
func Open(driver, path string) (ReadWriter, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteStore(path)
	case "yaml":
		return NewFileStore(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
