package raster

import "errors"

var (
	// ErrBadSignature indicates the file's leading bytes match no known
	// raster container magic number.
	ErrBadSignature = errors.New("unrecognized file signature")
	// ErrAllEnginesFailed indicates every decode engine rejected the file.
	ErrAllEnginesFailed = errors.New("all decode engines failed")
	// ErrVarNotFound indicates a requested variable is absent.
	ErrVarNotFound = errors.New("variable not found")
	// ErrCoordNotFound indicates the lat/lon coordinate variables are absent.
	ErrCoordNotFound = errors.New("coordinate variables not found")
	// ErrNoTimestamp indicates no inference method recovered a timestamp.
	ErrNoTimestamp = errors.New("cannot infer timestamp from dataset or filename")
)
