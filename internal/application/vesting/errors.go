package vesting

import "errors"

// ErrNonPositiveShares rejects sell-for-tax records with a zero or
// negative share count. The message is surfaced verbatim to the caller.
var ErrNonPositiveShares = errors.New("shareAmount must be > 0")
