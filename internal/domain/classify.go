package domain

import "slices"

// Category names an independent threshold ladder.
type Category string

const (
	CategoryFlood   Category = "flood"
	CategorySeismic Category = "seismic"
	CategoryStorm   Category = "storm"
)

// Trigger is one fired tier: the category it belongs to, the tier's level and
// the human-readable alert text.
type Trigger struct {
	Category Category  `json:"category"`
	Level    RiskLevel `json:"level"`
	Alert    string    `json:"alert"`
}

// Assessment is the outcome of classifying one reading set.
type Assessment struct {
	Level    RiskLevel
	Triggers []Trigger
}

// Alerts returns the alert strings in evaluation order.
func (a Assessment) Alerts() []string {
	alerts := make([]string, len(a.Triggers))
	for i, t := range a.Triggers {
		alerts[i] = t.Alert
	}
	return alerts
}

// AlertsGenerated reports whether any tier fired.
func (a Assessment) AlertsGenerated() bool {
	return len(a.Triggers) > 0
}

type tier struct {
	level RiskLevel
	alert string
	match func(Sensors) bool
	// overrides lists the global levels this tier may replace. Nil means
	// the tier always sets the global level.
	overrides []RiskLevel
}

type ladder struct {
	category Category
	tiers    []tier
}

var (
	onlyLow   = []RiskLevel{RiskLow}
	belowHigh = []RiskLevel{RiskLow, RiskModerate}
)

// ladders are evaluated in order; within a ladder the first matching tier
// wins.
var ladders = []ladder{
	{
		category: CategoryFlood,
		tiers: []tier{
			{RiskCritical, "CRITICAL FLOOD RISK - Immediate evacuation recommended", func(s Sensors) bool { return s.waterLevel() > 12 }, nil},
			{RiskHigh, "HIGH FLOOD RISK - Monitor situation closely", func(s Sensors) bool { return s.waterLevel() > 8 }, onlyLow},
			{RiskModerate, "MODERATE FLOOD RISK - Stay alert", func(s Sensors) bool { return s.waterLevel() > 6 }, onlyLow},
		},
	},
	{
		category: CategorySeismic,
		tiers: []tier{
			{RiskCritical, "MAJOR EARTHQUAKE ACTIVITY - Take cover immediately", func(s Sensors) bool { return s.vibration() > 7 }, nil},
			{RiskHigh, "SIGNIFICANT SEISMIC ACTIVITY - Prepare for earthquake", func(s Sensors) bool { return s.vibration() > 5 }, belowHigh},
			{RiskModerate, "MINOR SEISMIC ACTIVITY - Monitor situation", func(s Sensors) bool { return s.vibration() > 3 }, onlyLow},
		},
	},
	{
		category: CategoryStorm,
		tiers: []tier{
			{RiskCritical, "SEVERE STORM WARNING - Seek shelter immediately", func(s Sensors) bool { return s.rainfall() > 75 && s.windSpeed() > 60 }, nil},
			{RiskHigh, "HEAVY RAINFALL WARNING - Flash flood risk", func(s Sensors) bool { return s.rainfall() > 50 }, belowHigh},
			{RiskModerate, "HIGH WIND WARNING - Secure loose objects", func(s Sensors) bool { return s.windSpeed() > 70 }, onlyLow},
		},
	},
}

// Classify evaluates the flood, seismic and storm ladders against a reading
// set. It is a pure function of its input.
func Classify(rs ReadingSet) Assessment {
	a := Assessment{Level: RiskLow}
	for _, l := range ladders {
		for _, t := range l.tiers {
			if !t.match(rs.Sensors) {
				continue
			}
			a.Triggers = append(a.Triggers, Trigger{Category: l.category, Level: t.level, Alert: t.alert})
			if t.overrides == nil || slices.Contains(t.overrides, a.Level) {
				a.Level = t.level
			}
			break
		}
	}
	return a
}
