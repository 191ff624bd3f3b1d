package schema

import "fmt"

// Rolling statistic identifiers, in the order they are generated.
const (
	StatMean = "mean"
	StatStd  = "std"
	StatMin  = "min"
	StatMax  = "max"
)

// RollingStats lists the statistics produced for every rolling window.
var RollingStats = []string{StatMean, StatStd, StatMin, StatMax}

// LagName names a lag feature by its configured offset in seconds.
func LagName(col string, seconds int) string {
	return fmt.Sprintf("%s_lag_%ds", col, seconds)
}

// RollingName names a rolling statistic over a window of samples.
func RollingName(col, stat string, window int) string {
	return fmt.Sprintf("%s_rolling_%s_%d", col, stat, window)
}

// ROCName names the first difference of col.
func ROCName(col string) string { return col + "_roc" }

// AccelerationName names the second difference of col.
func AccelerationName(col string) string { return col + "_acceleration" }

// PctChangeName names the percentage change of col.
func PctChangeName(col string) string { return col + "_pct_change" }

// InteractionName names a pairwise interaction, op being mult, ratio or diff.
func InteractionName(a, b, op string) string {
	return fmt.Sprintf("%s_%s_%s", a, b, op)
}

// ZScoreName names the z-score of col.
func ZScoreName(col string) string { return col + "_z_score" }

// AnomalyName names the anomaly flag of col.
func AnomalyName(col string) string { return col + "_anomaly" }

// DistanceFromMeanName names the distance of col from its rolling mean.
func DistanceFromMeanName(col string) string { return col + "_distance_from_mean" }
