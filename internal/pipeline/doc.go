// Package pipeline orchestrates feature engineering for one organization.
//
// An Engineer renames raw columns through the schema mapping, runs every
// registered feature generator in order, cleans the result and optionally
// keeps only the best scoring features. Each run and each stage is traced
// with OpenTelemetry and recorded in the pipeline metrics.
//
//	eng, err := pipeline.NewFromOrganization(org, pipeline.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	out, err := eng.Run(ctx, raw, pipeline.RunOptions{IncludeSelection: true, MaxFeatures: 50})
package pipeline
