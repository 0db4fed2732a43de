package hostgate

import "errors"

// ErrInvalidMode is returned by ParseMode for anything other than
// "once" or "forever".
var ErrInvalidMode = errors.New("invalid disable mode: must be \"once\" or \"forever\"")
