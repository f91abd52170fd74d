package snapshot

import (
	"fmt"
	"icd/internal/providers"
	"icd/internal/snapshot/interfaces"
	"icd/internal/structures"
)

// NewStore builds the backend named by persistence.driver. The returned cleanup
// releases its resources.
func NewStore(conf *structures.Config, logger providers.Logger, compressor interfaces.CompressorInterface) (interfaces.StoreInterface, func(), error) {
	var store interfaces.StoreInterface

	switch conf.Persistence.Driver {
	case "postgres":
		db, err := OpenPostgres(conf.Persistence.DSN)
		if err != nil {
			return nil, nil, err
		}
		store = NewPostgresStore(db, logger)
	case "file", "":
		store = NewFileStore(conf.Persistence.FilePath, compressor, logger)
	default:
		return nil, nil, fmt.Errorf("unknown persistence driver %q", conf.Persistence.Driver)
	}

	logger.Infof(providers.TypeApp, "Snapshot store: %s", conf.Persistence.Driver)
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Errorf(providers.TypeApp, "Error while closing snapshot store: %s", err)
		}
	}
	return store, cleanup, nil
}
