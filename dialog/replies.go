package dialog

import (
	"fmt"
	"strings"
)

const (
	WelcomeText = "Welcome to Dental office virtual assistance. I can help you with information about treatment, insurance, scheduling and deleting the appointment."

	HelpText = "I'm not sure I found an answer to your question." +
		" You can ask me questions about treatment and insurance like \"What if I do not have insurance?\"" +
		"\nOR\n" +
		"You can ask me information about available appointments like \"Show appointment availability at Chicago\"" +
		"\nYou can ask me to schedule and delete an appointment like \"Schedule 8am at Chicago\", \"Delete/Cancel\""

	ApologyText = "Sorry, something went wrong while understanding your message. Please try again."

	SchedulerFailureText = "Sorry, I could not complete that request with the scheduling system. Please try again later."

	MissingTimeText = "Please mention time to book an appointment.\nSpecify am or pm."

	NoAppointmentText = "You do not have an appointment scheduled."

	ResetText = "Your conversation has been reset."

	specifyAmPmText = "Please specify am or pm in your appointment scheduling request."
)

func locationSuffix(location string) string {
	if location == "" {
		return ""
	}
	return "\nat requested location: " + location
}

func availabilityReply(availability, location string) string {
	return fmt.Sprintf("%s%s\n%s", strings.TrimSpace(availability), locationSuffix(location), specifyAmPmText)
}

func scheduledReply(confirmation, location string) string {
	return strings.TrimRight(strings.TrimSpace(confirmation), ".") + locationSuffix(location) + "."
}

func cancelledReply(confirmation, location string) string {
	reply := strings.TrimRight(strings.TrimSpace(confirmation), ".")
	if location != "" {
		reply += " in " + location
	}
	return reply + "."
}

func fallbackReply(answers []QnaAnswer) string {
	if len(answers) > 0 && strings.TrimSpace(answers[0].Answer) != "" {
		return answers[0].Answer
	}
	return HelpText
}
