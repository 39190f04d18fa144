package deepsize

import "errors"

var (
	// ErrNilRoot indicates that Scan was asked to measure a nil root value.
	ErrNilRoot = errors.New("deepsize: cannot scan a nil root value")

	// ErrContextUsed indicates that Context.Scan was called on a Context that
	// already carried a measurement; its visited set would hide every
	// previously counted allocation from the new one.
	ErrContextUsed = errors.New("deepsize: context already used by a prior measurement")
)
