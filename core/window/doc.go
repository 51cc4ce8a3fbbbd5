// Package window implements the charge window reconciliation engine.
//
// Raw dispatch intervals are normalized to a 30 minute grid, merged, absorbed
// into the overnight core window until a fixed point is reached, and the
// remaining independent windows are scored and rendered into the fixed slot
// layouts understood by the inverter firmware.
//
// Every function in this package is pure. The Core value is threaded through
// the pipeline explicitly so concurrent runs never share state.
package window
