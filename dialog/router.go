package dialog

type Action int

const (
	Fallback Action = iota
	ShowAvailability
	ScheduleAppointment
	CancelAppointment
)

func (a Action) String() string {
	switch a {
	case ShowAvailability:
		return "show_availability"
	case ScheduleAppointment:
		return "schedule_appointment"
	case CancelAppointment:
		return "cancel_appointment"
	default:
		return "fallback"
	}
}

// Availability queries need more confidence than the state changing intents.
const (
	availabilityThreshold = 0.70
	scheduleThreshold     = 0.50
	cancelThreshold       = 0.50
)

var rules = []struct {
	intent    string
	threshold float64
	action    Action
}{
	{IntentGetAvailability, availabilityThreshold, ShowAvailability},
	{IntentScheduleAppointment, scheduleThreshold, ScheduleAppointment},
	{IntentDeleteScheduledAppointment, cancelThreshold, CancelAppointment},
}

// Route picks the action for a classified utterance. Rules are checked in
// order and the first match wins; scores must be strictly above threshold.
func Route(c ClassificationResult) Action {
	for _, r := range rules {
		if c.TopIntent == r.intent {
			if c.Score(r.intent) > r.threshold {
				return r.action
			}
			return Fallback
		}
	}
	return Fallback
}
