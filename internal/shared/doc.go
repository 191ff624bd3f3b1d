// Package shared holds helpers used by several packages that belong to no
// single layer. Its testutil subpackage provides a buffered slog handler for
// asserting on log output in tests:
//
//	logger, handler := testutil.NewTestLogger(t)
//	svc := services.NewFeatureService(store, limits, nil, logger)
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "feature request complete")
package shared
