package main

import (
	"testing"

	_ "github.com/bizdash/bizdash/internal/testing/guard"
)

func TestMainSkipsInTestMode(t *testing.T) {
	main()
}
