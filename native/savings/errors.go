package savings

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports an input outside the domain of a savings
// calculation. Callers decide whether to reject or coerce the input.
var ErrInvalidArgument = errors.New("savings: invalid argument")

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
