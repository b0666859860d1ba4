package main

import (
	"testing"

	_ "github.com/Tech-Craft-Resources/orbit-engine/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	// Returns immediately; a real startup would block on the signal context.
	main()
}
