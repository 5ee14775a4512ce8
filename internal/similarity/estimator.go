package similarity

import (
	"math"
	"strings"
)

// Estimator turns two addresses into a distance in kilometres.
type Estimator interface {
	EstimateKm(from, to string) float64
}

// MaxProxyKm is the distance TextProxy reports for addresses with nothing in common.
const MaxProxyKm = 2.0

// TextProxy approximates distance from text similarity: identical addresses
// are 0 km apart and completely different ones MaxProxyKm apart. It is a
// stand-in for geocoding, not a geographic measure.
type TextProxy struct{}

func (TextProxy) EstimateKm(from, to string) float64 {
	sim := Similarity(strings.ToLower(from), strings.ToLower(to))
	return round2((1 - sim) * MaxProxyKm)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EstimatorFunc adapts a plain function to Estimator.
type EstimatorFunc func(from, to string) float64

func (f EstimatorFunc) EstimateKm(from, to string) float64 { return f(from, to) }
