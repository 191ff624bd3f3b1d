// Package features generates the engineered feature columns of a SCADA
// feature table.
//
// Every stage implements Generator and only appends columns to a copy of its
// input table. Stages whose inputs are absent from the table do nothing.
// The fixed stage order is held by the Registry returned from
// NewDefaultRegistry:
//
//	time-encoding → lag → rolling → rate-of-change → interaction →
//	cross-variable statistics → anomaly → domain-derived
//
// Per-column work inside the lag, rolling, rate and anomaly stages runs
// concurrently on an errgroup; output column order never depends on
// scheduling.
package features
