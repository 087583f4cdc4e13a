package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func classified(intent string, score float64) ClassificationResult {
	return ClassificationResult{
		TopIntent:    intent,
		IntentScores: map[string]float64{intent: score},
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name   string
		in     ClassificationResult
		expect Action
	}{
		{"availability above threshold", classified(IntentGetAvailability, 0.85), ShowAvailability},
		{"availability at threshold", classified(IntentGetAvailability, 0.70), Fallback},
		{"availability between thresholds", classified(IntentGetAvailability, 0.6), Fallback},
		{"schedule above threshold", classified(IntentScheduleAppointment, 0.51), ScheduleAppointment},
		{"schedule at threshold", classified(IntentScheduleAppointment, 0.50), Fallback},
		{"cancel above threshold", classified(IntentDeleteScheduledAppointment, 0.95), CancelAppointment},
		{"cancel at threshold", classified(IntentDeleteScheduledAppointment, 0.50), Fallback},
		{"unknown intent", classified("None", 0.99), Fallback},
		{"empty result", ClassificationResult{}, Fallback},
		{
			name: "top intent without score",
			in: ClassificationResult{
				TopIntent:    IntentScheduleAppointment,
				IntentScores: map[string]float64{IntentGetAvailability: 0.9},
			},
			expect: Fallback,
		},
		{
			name: "only the top intent counts",
			in: ClassificationResult{
				TopIntent: "None",
				IntentScores: map[string]float64{
					"None":                           0.4,
					IntentDeleteScheduledAppointment: 0.9,
				},
			},
			expect: Fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Route(tt.in))
		})
	}
}

func TestRoute_ThresholdSweep(t *testing.T) {
	for i := 0; i <= 100; i++ {
		score := float64(i) / 100

		assert.Equal(t, score > 0.70, Route(classified(IntentGetAvailability, score)) == ShowAvailability, "availability %v", score)
		assert.Equal(t, score > 0.50, Route(classified(IntentScheduleAppointment, score)) == ScheduleAppointment, "schedule %v", score)
		assert.Equal(t, score > 0.50, Route(classified(IntentDeleteScheduledAppointment, score)) == CancelAppointment, "cancel %v", score)
	}
}

func TestExtractFirst(t *testing.T) {
	entities := map[string][]string{
		SlotTime:     {"8am", "9am"},
		SlotLocation: {},
		"empty":      {""},
	}

	v, ok := ExtractFirst(entities, SlotTime)
	assert.True(t, ok)
	assert.Equal(t, "8am", v)

	_, ok = ExtractFirst(entities, SlotLocation)
	assert.False(t, ok)

	_, ok = ExtractFirst(entities, "empty")
	assert.False(t, ok)

	_, ok = ExtractFirst(nil, SlotTime)
	assert.False(t, ok)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "show_availability", ShowAvailability.String())
	assert.Equal(t, "schedule_appointment", ScheduleAppointment.String())
	assert.Equal(t, "cancel_appointment", CancelAppointment.String())
	assert.Equal(t, "fallback", Fallback.String())
}
