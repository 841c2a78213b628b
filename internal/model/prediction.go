package model

// Horizon identifies a prediction horizon.
type Horizon string

const (
	Horizon1h  Horizon = "1h"
	Horizon4h  Horizon = "4h"
	Horizon24h Horizon = "24h"
)

// Prediction is a point forecast for one horizon.
type Prediction struct {
	Horizon   Horizon
	Price     float64
	ChangePct float64 // signed percentage vs. the current price
}

// PredictionSet bundles the three horizon forecasts with the model's
// estimated accuracy and the factor list that produced them.
type PredictionSet struct {
	H1       Prediction
	H4       Prediction
	H24      Prediction
	Accuracy float64
	Factors  []string
}

// ModelParams is the persisted state of the prediction model, updated by the
// retraining task.
type ModelParams struct {
	LastAccuracy float64 `json:"last_accuracy"`
	LastUpdate   string  `json:"last_update"`
	Version      string  `json:"model_version"`
}
