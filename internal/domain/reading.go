package domain

import (
	"encoding/json"
	"fmt"
)

// ReadingSet is one timestamped bundle of sensor values passed between
// components. Timestamp is kept as the ISO-8601 string it arrived with.
type ReadingSet struct {
	Timestamp string  `json:"timestamp"`
	Sensors   Sensors `json:"sensors"`
}

// Sensors groups the three sensor categories. A nil category was not
// reported; classification treats its values as zero.
type Sensors struct {
	WaterLevel *LevelReading   `json:"water_level,omitempty"`
	Vibration  *LevelReading   `json:"vibration,omitempty"`
	Weather    *WeatherReading `json:"weather,omitempty"`
}

// LevelReading is a single-valued sensor reading (water level in meters,
// vibration in magnitude).
type LevelReading struct {
	SensorID string  `json:"sensor_id"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
	Location string  `json:"location"`
}

// WeatherReading carries the weather station's multi-field reading.
type WeatherReading struct {
	SensorID    string  `json:"sensor_id"`
	Rainfall    float64 `json:"rainfall"`
	WindSpeed   float64 `json:"wind_speed"`
	Temperature float64 `json:"temperature"`
	Location    string  `json:"location"`
}

// ParseReadingSet decodes a JSON reading set.
func ParseReadingSet(data []byte) (ReadingSet, error) {
	var rs ReadingSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return ReadingSet{}, fmt.Errorf("parse reading set: %w", err)
	}
	return rs, nil
}

func (s Sensors) waterLevel() float64 {
	if s.WaterLevel == nil {
		return 0
	}
	return s.WaterLevel.Value
}

func (s Sensors) vibration() float64 {
	if s.Vibration == nil {
		return 0
	}
	return s.Vibration.Value
}

func (s Sensors) rainfall() float64 {
	if s.Weather == nil {
		return 0
	}
	return s.Weather.Rainfall
}

func (s Sensors) windSpeed() float64 {
	if s.Weather == nil {
		return 0
	}
	return s.Weather.WindSpeed
}
