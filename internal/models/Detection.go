package models

// Detection is a single classifier output for one image.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// DetectionResult is everything the classifier found in one image. Order carries no meaning.
type DetectionResult []Detection
