package model

// Diagnosis is the outcome of an LLM diagnostic session for one sensor.
// Iterations counts the prompt rounds including data follow-ups.
type Diagnosis struct {
	SensorID         string `json:"sensor_id"`
	Report           string `json:"report"`
	Iterations       int    `json:"iterations"`
	ReadingsAnalyzed int    `json:"readings_analyzed"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}
