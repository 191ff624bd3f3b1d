package config

// Application constants
const (
	AppName    = "SCADA Feature Pipeline"
	AppVersion = "1.0.0"

	DefaultMaxFeatures     = 100
	DefaultSelectionMethod = "f_classif"
	DefaultTargetColumn    = "failure_indicator"

	// Output artifacts written by featurectl
	FeaturesCSVFile   = "features.csv"
	FeaturesXLSXFile  = "features.xlsx"
	SelectionJSONFile = "selection.json"
	SummaryJSONFile   = "summary.json"
	ScalerJSONFile    = "scaler.json"
	RunsCSVFile       = "runs.csv"
)
