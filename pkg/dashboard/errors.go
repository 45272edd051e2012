package dashboard

import "errors"

var (
	ErrUnknownDevice = errors.New("unknown device")
	ErrNotMounted    = errors.New("component is not mounted")
	ErrEmptyDeviceID = errors.New("empty device ID")
)
