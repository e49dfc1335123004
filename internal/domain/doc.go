// Package domain models the storm shock ceremony: the event catalog, the
// events it produces, and the scalar state they act on.
//
// # Phases
//
// A run moves through three phases and never returns to an earlier one:
//
//	misting  → low-intensity events at ~2.5/s, symmetric ±15% chaos
//	storming → shocks at ~0.5/s, chaos in [-50%, +75%], occasional bursts and lulls
//	clearing → three fixed relief events with negative intensity
//
// # State Model
//
// The state starts at a baseline of 1.0. Every applied event adds its signed
// intensity to both the current state and the accumulated displacement.
// Between events the state decays toward baseline at 20 steps per second:
//
//	current = (current - baseline) * rate + baseline    (only while current > baseline)
//
// Decay never lifts a below-baseline state, so relief lingers. The accumulated
// displacement is a plain running sum and is never decayed.
//
// # Thunder
//
// Two shock categories (quick_rumble, deep_roll) are thunder. At most
// ThunderCap (default 2) of them occur per run; once the cap is reached they
// are removed from the shock table for the rest of the run.
//
// # Configuration Errors
//
// A catalog with a negative weight, an inverted or negative intensity range,
// or a set whose weights are all zero is rejected by [Catalog.Validate] with a
// [ConfigurationError]. Nothing downstream of a valid catalog can fail.
package domain
