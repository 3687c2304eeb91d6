package errors

import (
	"fmt"
)

var (
	ErrInvalidConfig = fmt.Errorf("counsel: invalid config")
	ErrNotFound      = fmt.Errorf("counsel: not found")
	ErrInvalidParams = fmt.Errorf("counsel: invalid params")
	ErrUnavailable   = fmt.Errorf("counsel: unavailable")
	ErrInternal      = fmt.Errorf("counsel: internal error")
)
