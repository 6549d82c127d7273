package notify

import (
	"fmt"

	"printshop-scheduler/internal/model"
)

const (
	SubjectReceived  = "You requested an appointment to the faculty."
	SubjectCancelled = "Your appointment was Cancelled"
)

func ReceivedBody(a model.Appointment) string {
	return fmt.Sprintf(`Hi, %s

Your Appointment was successfully sent to the faculty. Please check your email/outlook from time-to-time for updates regarding with your appointment. Thank you!

Appointment Details:
Date Needed: %s
Time: %s
Copies: %d
Size: %s
Urgency: %s
Request ID: %s
`, a.Name, a.Date, a.Time, a.Copies, a.PaperSize, a.Urgency, a.RequestID)
}

func CancelledBody(a model.Appointment) string {
	return fmt.Sprintf(`Hi, %s

Your appointment %s for %s was cancelled.
`, a.Name, a.RequestID, a.Date)
}
