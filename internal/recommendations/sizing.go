package recommendations

import (
	"strings"

	"carbonview/internal/types"
)

// sizeOrder lists EC2 size suffixes from smallest to largest. A downsize
// moves one step left.
var sizeOrder = []string{
	"nano", "micro", "small", "medium", "large",
	"xlarge", "2xlarge", "4xlarge", "8xlarge", "12xlarge",
	"16xlarge", "24xlarge", "32xlarge", "48xlarge",
}

// crossFamilyTarget maps a compute-oriented family to a cheaper
// burstable-or-general equivalent for CROSS_INSTANCE_FAMILY targets.
var crossFamilyTarget = map[string]string{
	"m5": "t3",
	"m6": "t3",
	"c5": "m5",
	"c6": "m6",
	"r5": "m5",
	"r6": "m6",
	"m4": "t2",
	"c4": "m4",
	"r4": "m4",
}

// familyWatts gives average power draw in watts per instance family,
// scaled by size below. Unknown families fall back to a general-purpose
// figure.
var familyWatts = map[string]float64{
	"t2": 10.0,
	"t3": 10.0,
	"m4": 30.0,
	"m5": 35.0,
	"m6": 32.0,
	"c4": 40.0,
	"c5": 45.0,
	"c6": 42.0,
	"r4": 50.0,
	"r5": 55.0,
	"r6": 52.0,
}

const defaultFamilyWatts = 35.0

// splitInstanceType separates "m5.xlarge" into family "m5" and size
// "xlarge". Returns false when the type does not follow that shape.
func splitInstanceType(instanceType string) (family, size string, ok bool) {
	family, size, ok = strings.Cut(instanceType, ".")
	if !ok || family == "" || size == "" {
		return "", "", false
	}
	return family, size, true
}

// downsizeTarget returns the instance type one size step down, staying in
// the same family or crossing to a cheaper one per the target mode. Returns
// false when the instance is already at the smallest size with nowhere to
// go, or its type is unrecognized.
func downsizeTarget(instanceType string, target types.AWSRecommendationTarget) (string, bool) {
	family, size, ok := splitInstanceType(instanceType)
	if !ok {
		return "", false
	}

	idx := -1
	for i, s := range sizeOrder {
		if s == size {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}

	if target == types.CrossInstanceFamily {
		if mapped, ok := crossFamilyTarget[family]; ok {
			// Cross-family moves keep the size and change the family.
			return mapped + "." + size, true
		}
		// No cheaper family known; fall through to a same-family step.
	}

	if idx == 0 {
		return "", false
	}
	return family + "." + sizeOrder[idx-1], true
}

// instanceWatts estimates average power draw for an instance type. Sizes
// scale linearly from the family's large-size baseline.
func instanceWatts(instanceType string) float64 {
	family, size, ok := splitInstanceType(instanceType)
	if !ok {
		return defaultFamilyWatts
	}

	watts, ok := familyWatts[family]
	if !ok {
		watts = defaultFamilyWatts
	}
	return watts * sizeScale(size)
}

// sizeScale maps a size suffix to a multiplier relative to "large".
func sizeScale(size string) float64 {
	switch size {
	case "nano":
		return 0.125
	case "micro":
		return 0.25
	case "small":
		return 0.5
	case "medium":
		return 0.75
	case "large":
		return 1.0
	case "xlarge":
		return 2.0
	case "2xlarge":
		return 4.0
	case "4xlarge":
		return 8.0
	case "8xlarge":
		return 16.0
	case "12xlarge":
		return 24.0
	case "16xlarge":
		return 32.0
	case "24xlarge":
		return 48.0
	case "32xlarge":
		return 64.0
	case "48xlarge":
		return 96.0
	default:
		return 1.0
	}
}
