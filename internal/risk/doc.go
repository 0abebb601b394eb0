// Package risk implements the CMX composite risk score for COMEX metals.
//
// The score condenses five independent physical/financial market indicators
// into a single 0-100 number, an ordinal risk level, a dominant-factor label,
// and short human-readable commentary:
//
//  1. Coverage: registered inventory relative to monthly demand
//  2. Paper/Physical Leverage: open-interest-equivalent units per registered unit
//  3. Inventory Trend: 30-day percent change in registered inventory
//  4. Delivery Velocity: annualized delivery notices relative to inventory
//  5. Market Activity: year-over-year percent change in open interest
//
// # Architecture
//
//   - types.go: factor inputs, score outputs, weights and level thresholds
//   - curve.go: shared piecewise-linear breakpoint interpolation
//   - normalizers.go: the five factor normalizers built on breakpoint tables
//   - engine.go: weighted aggregation and level classification
//   - dominant.go: dominant-factor selection
//   - commentary.go: commentary generation
//
// Each normalizer maps one raw indicator onto a 0-100 sub-risk score through a
// hand-tuned breakpoint table. Normalizers that depend on optional historical
// data follow a shared null-input policy: a missing input resolves to the
// neutral score 50 ("no signal"), never to zero and never to an error.
//
// # Usage Example
//
//	engine, err := risk.NewEngine(risk.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	change := -12.5
//	score := engine.Calculate(risk.RiskFactors{
//	    CoverageRatio:      3.2,
//	    PaperPhysicalRatio: 8.4,
//	    InventoryChange30d: &change,
//	})
//	fmt.Println(score.Composite, score.Level, score.DominantFactor)
//
// The engine is a pure, stateless transform: no I/O, no hidden state, no
// randomness. A single Engine may be shared across goroutines and invoked
// concurrently for different metals with no ordering constraints.
package risk
