package codegen

import (
	"github.com/conneroisu/afmt/internal/capacity"
	"github.com/conneroisu/afmt/internal/errors"
)

// CheckCapacity rejects a writer destination that cannot hold every
// rendering within the bound.
func CheckCapacity(dest capacity.Destination, bound capacity.Bound) error {
	short := bound.Shortfall(dest.Capacity)
	if short == 0 {
		return nil
	}
	return errors.ErrCapacityInsufficient(dest.Capacity, bound.Total(), short)
}
