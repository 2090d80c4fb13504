package domain

import "errors"

var (
	// ErrFetch marks a snapshot request that failed at the network or HTTP level.
	ErrFetch = errors.New("fetch snapshot")

	// ErrParse marks a snapshot body that is not a JSON object.
	ErrParse = errors.New("parse snapshot")

	// ErrNoMatch is returned when a geocoding query resolves to nothing.
	ErrNoMatch = errors.New("location not found")

	// ErrEmptyQuery is returned for blank search input.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrUnknownDevice is returned when a device id has never been reconciled.
	ErrUnknownDevice = errors.New("unknown device")
)
