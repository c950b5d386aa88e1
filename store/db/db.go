// Package db provides the store driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/usemaya/maya/internal/profile"
	"github.com/usemaya/maya/store"
	"github.com/usemaya/maya/store/db/postgres"
	"github.com/usemaya/maya/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver: %s (only 'sqlite' and 'postgres' are supported)", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
