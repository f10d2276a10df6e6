package geoquery

import (
	"fmt"

	"github.com/piresc/geoquery/internal/pkg/geo"
)

var (
	ErrNilListener       = fmt.Errorf("%w: listener is nil", geo.ErrInvalidArgument)
	ErrAlreadyRegistered = fmt.Errorf("%w: listener already registered", geo.ErrInvalidArgument)
	ErrNotRegistered     = fmt.Errorf("%w: listener not registered", geo.ErrInvalidArgument)
)
