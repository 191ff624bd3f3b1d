// Package selection ranks candidate features against a binary target and
// keeps the strongest ones.
//
// Two univariate scores are supported: the ANOVA F statistic (f_classif) and
// a k-nearest-neighbour mutual information estimate (mutual_info). A
// selection is captured in a Result that can be stored as JSON and applied
// to inference tables built under the same configuration fingerprint.
package selection
