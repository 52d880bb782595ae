// Package domain models sensor reading sets and the threshold rules that turn
// them into disaster risk assessments.
//
// # Reading Sets
//
// A reading set bundles one timestamp with up to three sensor categories:
//
//	water_level  value in meters        (sensor WL001, "River Basin A")
//	vibration    value in magnitude     (sensor VB001, "Seismic Station 1")
//	weather      rainfall mm, wind_speed km/h, temperature °C
//	             (sensor WS001, "Weather Station A")
//
// Categories or fields missing from the payload classify as zero and render
// as "N/A" in notifications.
//
// # Risk Ladders
//
// Each category is checked independently, highest tier first. At most one tier
// fires per category:
//
//	Flood:   water > 12 CRITICAL | > 8 HIGH | > 6 MODERATE
//	Seismic: vibration > 7 CRITICAL | > 5 HIGH | > 3 MODERATE
//	Storm:   rainfall > 75 and wind > 60 CRITICAL | rainfall > 50 HIGH |
//	         wind > 70 MODERATE
//
// Thresholds are strict: a water level of exactly 12 is HIGH, not CRITICAL.
//
// # Escalation
//
// Every tier carries the set of prior global levels it may overwrite.
// CRITICAL tiers always overwrite. HIGH tiers overwrite LOW (flood) or LOW and
// MODERATE (seismic, storm). MODERATE tiers overwrite LOW only. Because flood
// is evaluated first, these guards always produce the highest fired level.
//
// # Notifications
//
// Notifications are rendered from templates kept apart from classification,
// see [AlertNotification] and [CustomAlertNotification]. Channel-delivered
// notifications arrive wrapped as {"Records":[{"EventSource":..., "Sns":{...}}]}.
package domain
