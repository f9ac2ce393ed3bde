package distributor

import "errors"

// ErrDistributorAPI is surfaced when the remote service returns a
// non-retriable failure: a non-2xx/non-429 HTTP status, or a 200
// response carrying a non-empty application-level Errors block.
var ErrDistributorAPI = errors.New("distributor: api error")

// ErrNotFound is returned by SearchByMpn when the distributor has no
// record of the requested manufacturer part number.
var ErrNotFound = errors.New("distributor: part not found")
