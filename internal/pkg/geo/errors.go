package geo

import "errors"

// ErrInvalidArgument is the base error for rejected inputs. Callers match it
// with errors.Is; the wrapped message names the offending value.
var ErrInvalidArgument = errors.New("invalid argument")
