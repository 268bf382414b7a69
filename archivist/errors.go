package archivist

import (
	"errors"

	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

// archivistError is a service-level error type.
type archivistError error

var (
	// ErrUnknownSymbol is returned for symbols outside of the configured universe.
	ErrUnknownSymbol archivistError = errors.New("unknown symbol")
	// ErrNoData is returned when a symbol of the universe has not been fetched yet.
	ErrNoData archivistError = errors.New("no data")
)

var (
	errSymbolEmpty       archivistError = errors.New("symbol is empty")
	errSymbolTooLong     archivistError = errors.New("symbol is too long")
	errProviderTooLong   archivistError = errors.New("provider is too long")
	errRecordValidation  archivistError = errors.New("snapshot record validation failed")
	errRecordEncode      archivistError = errors.New("failed to encode snapshot record")
	errRecordDecode      archivistError = errors.New("failed to decode snapshot record")
	errSnapshotSave      archivistError = errors.New("failed to save snapshot")
	errSnapshotLoad      archivistError = errors.New("failed to load snapshot")
	errFailedMigration   archivistError = errors.New("failed to migrate schema")
	errFailedConnection  archivistError = errors.New("failed to connect to database")
	errUnknownBackend    archivistError = errors.New("unknown archive backend")
	errMissingConnString archivistError = errors.New("archive backend requires a connection string")
)

// newError creates a wrapped error instance with the given errors.
func newError(lvl errlvl.Lvl, genericErr archivistError, err error) error {
	var wrappedErr error
	if err != nil {
		wrappedErr = errlvl.Wrap(errors.Join(genericErr, err), lvl)
	} else {
		wrappedErr = errlvl.Wrap(genericErr, lvl)
	}

	return wrappedErr
}
