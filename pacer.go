package pacer

import (
	core "github.com/y0nigt/pacer/pkg/pacer"
)

// Re-export main types for convenience
type (
	Curve           = core.Curve
	CurveConfig     = core.CurveConfig
	DelayCalculator = core.DelayCalculator
	Definition      = core.Definition
	Limiter         = core.Limiter
	Registry        = core.Registry
)

// NewCurve creates a precomputed backoff curve
var NewCurve = core.NewCurve

// NewLimiter creates a sliding-window limiter
var NewLimiter = core.NewLimiter

// NewRegistry creates a policy registry
var NewRegistry = core.NewRegistry

// NewDelayCalculator composes retry delays from a curve
var NewDelayCalculator = core.NewDelayCalculator

// BuiltinDefinitions returns the stock policies
var BuiltinDefinitions = core.BuiltinDefinitions
