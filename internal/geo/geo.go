// Package geo provides the pure filtering predicates used when listing
// candidate requests: great-circle distance, age-range buckets, and
// "Any"-aware equality. No I/O happens here.
package geo

import "math"

const earthRadiusMiles = 3958.8

// AgeRanges are the filter buckets offered by the client.
var AgeRanges = []string{"18-25", "26-35", "36-50", "50+"}

// DistanceMiles returns the haversine distance between two points given in
// degrees of latitude and longitude.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// WithinRadius reports whether the two points are at most radiusMiles apart.
// The boundary is inclusive: a point exactly at the radius is within it.
func WithinRadius(lat1, lon1, lat2, lon2, radiusMiles float64) bool {
	return DistanceMiles(lat1, lon1, lat2, lon2) <= radiusMiles
}

// MatchesAgeRange reports whether age falls in the named bucket. An unknown
// bucket label or "Any" passes everything.
func MatchesAgeRange(age int, bucket string) bool {
	switch bucket {
	case "18-25":
		return age >= 18 && age <= 25
	case "26-35":
		return age >= 26 && age <= 35
	case "36-50":
		return age >= 36 && age <= 50
	case "50+":
		return age >= 50
	default:
		return true
	}
}

// MatchesEquality treats a nil or "Any" filter as always-true, otherwise
// requires an exact match.
func MatchesEquality(value string, filter *string) bool {
	if filter == nil || *filter == "" || *filter == "Any" {
		return true
	}
	return value == *filter
}
