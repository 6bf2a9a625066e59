package importer

import "errors"

// ErrSourceUnavailable means an external fetch failed. The batch it belongs
// to is aborted, but per-record updates already committed stay committed.
var ErrSourceUnavailable = errors.New("import source unavailable")
