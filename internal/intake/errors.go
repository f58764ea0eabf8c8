package intake

import "errors"

// ErrMethodNotAllowed is returned for anything but POST on a submit endpoint.
// The other terminal errors come from the stage that produced them:
// guard.ErrRejected, validation.ErrInvalid, validation.ErrUnknownResource,
// records.ErrInit. records.ErrAppend and notify.ErrMailSendFailed are logged only.
var ErrMethodNotAllowed = errors.New("method not allowed")

// ErrUnknownForm is returned when no definition exists for the requested kind.
var ErrUnknownForm = errors.New("unknown form kind")
