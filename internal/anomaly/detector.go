package anomaly

import (
	"math"

	"crypto-weather/internal/domain"

	goiforest "github.com/narumiruna/go-iforest/pkg/iforest"
)

const (
	defaultThreshold = 0.62
	defaultTrees     = 100
	defaultSample    = 64
	minSamples       = 20
)

// Detector flags turbulent price action by isolation-forest scoring the most
// recent daily move against the rest of the series.
type Detector struct {
	threshold float64
	trees     int
	sample    int
}

func NewDetector(threshold float64) *Detector {
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultThreshold
	}
	return &Detector{threshold: threshold, trees: defaultTrees, sample: defaultSample}
}

// Turbulent reports whether the latest day stands out from the series.
// Returns false for series too short to judge.
func (d *Detector) Turbulent(points []domain.PricePoint) bool {
	score := d.Score(points)
	return score >= d.threshold
}

// Score returns the isolation score of the latest daily move in [0,1];
// 0 when the series is too short.
func (d *Detector) Score(points []domain.PricePoint) float64 {
	samples := featureVectors(points)
	if len(samples) < minSamples {
		return 0
	}

	history := samples[:len(samples)-1]
	latest := samples[len(samples)-1]

	means, stds := fitScaler(history)
	forest := goiforest.NewWithOptions(goiforest.Options{
		DetectionType: goiforest.DetectionTypeThreshold,
		Threshold:     d.threshold,
		NumTrees:      d.trees,
		SampleSize:    min(d.sample, len(history)),
	})
	forest.Fit(scaleBatch(history, means, stds))

	scores := forest.Score([][]float64{scale(latest, means, stds)})
	if len(scores) == 0 {
		return 0
	}
	score := scores[0]
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// featureVectors maps each day to [return, abs return, volume ratio].
func featureVectors(points []domain.PricePoint) [][]float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([][]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		if prev.Price <= 0 || curr.Price <= 0 {
			continue
		}
		ret := (curr.Price - prev.Price) / prev.Price
		volRatio := 0.0
		if prev.Volume > 0 && curr.Volume > 0 {
			volRatio = curr.Volume / prev.Volume
		}
		out = append(out, []float64{ret, math.Abs(ret), volRatio})
	}
	return out
}

func fitScaler(samples [][]float64) ([]float64, []float64) {
	features := len(samples[0])
	means := make([]float64, features)
	stds := make([]float64, features)
	for j := 0; j < features; j++ {
		for i := range samples {
			means[j] += samples[i][j]
		}
		means[j] /= float64(len(samples))
		for i := range samples {
			d := samples[i][j] - means[j]
			stds[j] += d * d
		}
		stds[j] = math.Sqrt(stds[j] / float64(len(samples)))
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return means, stds
}

func scaleBatch(samples [][]float64, means, stds []float64) [][]float64 {
	out := make([][]float64, len(samples))
	for i := range samples {
		out[i] = scale(samples[i], means, stds)
	}
	return out
}

func scale(in, means, stds []float64) []float64 {
	out := make([]float64, len(in))
	for i := range in {
		out[i] = (in[i] - means[i]) / stds[i]
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
