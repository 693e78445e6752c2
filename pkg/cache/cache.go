package cache

import "errors"

// ErrTxContended is returned when an optimistic transaction keeps losing to other writers.
var ErrTxContended = errors.New("cache: transaction contended")
