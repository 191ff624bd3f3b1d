package config

import "sort"

// Industry templates for new organizations
const (
	IndustryManufacturing   = "manufacturing"
	IndustryPowerGeneration = "power_generation"
	IndustryWaterTreatment  = "water_treatment"
)

type industryTemplate struct {
	continuous []string
	boolean    []string
	lags       []int
	windows    []int
}

var templates = map[string]industryTemplate{
	IndustryManufacturing: {
		continuous: []string{"temperature", "pressure", "flow_rate", "vibration", "current", "voltage", "rpm", "power_consumption"},
		boolean:    []string{"pump_status", "valve_open", "alarm_active", "maintenance_mode"},
		lags:       []int{60, 120, 300},
		windows:    []int{5, 10, 20},
	},
	IndustryPowerGeneration: {
		continuous: []string{"generator_temp", "turbine_speed", "power_output", "fuel_flow", "exhaust_temp", "oil_pressure", "coolant_temp"},
		boolean:    []string{"generator_online", "turbine_running", "fault_detected"},
		lags:       []int{30, 60, 180},
		windows:    []int{3, 6, 12},
	},
	IndustryWaterTreatment: {
		continuous: []string{"ph_level", "turbidity", "chlorine_level", "flow_rate", "pressure", "temperature", "conductivity"},
		boolean:    []string{"pump_running", "filter_active", "chemical_feed_on"},
		lags:       []int{120, 300, 600},
		windows:    []int{10, 20, 40},
	},
}

// Industries returns the known industry template names, sorted.
func Industries() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultOrganization returns a configuration for orgID built from the named
// industry template. Unknown industries fall back to manufacturing.
func DefaultOrganization(orgID, industry string) *Organization {
	tpl, ok := templates[industry]
	if !ok {
		industry = IndustryManufacturing
		tpl = templates[industry]
	}

	org := &Organization{
		ID:       orgID,
		Industry: industry,
		Data: DataConfig{
			SamplingIntervalMinutes: 5,
			MinSamples:              1000,
			MaxSamples:              100000,
			FailureLookbackMinutes:  10,
			FailureLookaheadMinutes: 5,
		},
		Features: FeatureConfig{
			IncludeSelection: true,
			MaxFeatures:      DefaultMaxFeatures,
			SelectionMethod:  DefaultSelectionMethod,
		},
	}
	org.Schema.ContinuousColumns = append([]string(nil), tpl.continuous...)
	org.Schema.BooleanColumns = append([]string(nil), tpl.boolean...)
	org.Schema.ColumnMapping = map[string]string{}
	org.Schema.LagSeconds = append([]int(nil), tpl.lags...)
	org.Schema.RollingWindows = append([]int(nil), tpl.windows...)
	org.Schema.TargetColumn = DefaultTargetColumn
	org.Schema.TimestampColumn = "timestamp"
	return org
}
