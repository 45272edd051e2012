package api

import "errors"

var (
	errSessionNotFound = errors.New("session not found")
	errListNotLoaded   = errors.New("device list not loaded")
	errInvalidDeviceID = errors.New("invalid device id")
)
