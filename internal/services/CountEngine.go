package services

import "icd/internal/models"

// Apply derives new counts from a baseline: every detection of a counter's label
// with confidence >= threshold decrements that counter by one. Results may go
// negative; unknown labels are ignored.
func Apply(baseline models.Counts, detections models.DetectionResult, threshold float64) models.Counts {
	result := baseline
	for kind, n := range Hits(detections, threshold) {
		result.Set(kind, result.Get(kind)-n)
	}
	return result
}

// Hits counts qualifying detections per counter.
func Hits(detections models.DetectionResult, threshold float64) map[models.CounterKind]int {
	hits := make(map[models.CounterKind]int, len(models.Kinds))
	for _, d := range detections {
		if d.Confidence < threshold {
			continue
		}
		if kind, ok := models.KindByLabel(d.Label); ok {
			hits[kind]++
		}
	}
	return hits
}
