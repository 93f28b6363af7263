package grants

import "errors"

// ErrReferenced is returned by Delete when allocation rows still point at
// the grant; removing it would leave a silent reporting gap.
var ErrReferenced = errors.New("Grant is referenced by existing release events")
