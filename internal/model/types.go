package model

import "time"

// Metadata describes the ONNX model: tensor shapes, the ordered class list
// the output probabilities are aligned to, and the square input image size.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// RankedPrediction is one label/confidence pair in a top-K ranking.
type RankedPrediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult is the ranked outcome of a single inference.
// Ranked is sorted by confidence descending, holds no duplicate labels,
// and Ranked[0] is always the overall prediction.
type ClassificationResult struct {
	PredictedDisease string
	Confidence       float64
	Ranked           []RankedPrediction
}

// PredictionRecord is the persisted result of one successful classification.
// Confidence values are stored at full precision; rounding happens only when
// building HTTP responses.
type PredictionRecord struct {
	PredictionID     string             `json:"prediction_id"`
	Filename         string             `json:"filename"`
	Timestamp        time.Time          `json:"timestamp"`
	PredictedDisease string             `json:"predicted_disease"`
	Confidence       float64            `json:"confidence"`
	AllPredictions   []RankedPrediction `json:"all_predictions"`
	ModelVersion     string             `json:"model_version"`
}

// PredictionResponse is the body returned by the predict endpoint.
type PredictionResponse struct {
	PredictionID     string             `json:"prediction_id"`
	Filename         string             `json:"filename"`
	PredictedDisease string             `json:"predicted_disease"`
	Confidence       float64            `json:"confidence"`
	AllPredictions   []RankedPrediction `json:"all_predictions"`
	Timestamp        string             `json:"timestamp"`
}

// HistoryEntry is one row of the history endpoint.
type HistoryEntry struct {
	PredictionID     string             `json:"prediction_id"`
	Filename         string             `json:"filename"`
	Timestamp        string             `json:"timestamp"`
	PredictedDisease string             `json:"predicted_disease"`
	Confidence       float64            `json:"confidence"`
	AllPredictions   []RankedPrediction `json:"all_predictions"`
	ModelVersion     string             `json:"model_version"`
}

// HistoryResponse is the body returned by the history endpoint.
type HistoryResponse struct {
	Total   int64          `json:"total"`
	Results []HistoryEntry `json:"results"`
}
