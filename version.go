package orrery

import _ "embed"

// Version is the release of the orrery module.
//
//go:embed VERSION
var Version string
