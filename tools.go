//go:build tools
// +build tools

// Package tools tracks tool dependencies that are required by the project
// but not directly imported by application code. This file ensures these
// dependencies are tracked in go.mod.
package tools

import (
	// swag generates the OpenAPI description in docs/
	_ "github.com/swaggo/swag/cmd/swag"
)
