//go:build nocgo
// +build nocgo

package audio

import (
	"errors"

	"github.com/charmbracelet/log"
)

// OtoSurface is unavailable in builds without cgo.
type OtoSurface struct {
	ClockSurface
}

// NewOtoSurface always fails in builds without cgo.
func NewOtoSurface(int, *log.Logger) (*OtoSurface, error) {
	return nil, errors.New("audio not available in nocgo build")
}
