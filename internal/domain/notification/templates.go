package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var french = message.NewPrinter(language.French)

// GSM-7 has no no-break spaces, which x/text groups French digits with
var smsSpaces = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

// FormatAmount formats a franc CFA amount with French digit grouping, e.g. "1 500 FCFA"
func FormatAmount(amount decimal.Decimal) string {
	return smsSpaces.Replace(french.Sprintf("%d FCFA", amount.Round(0).IntPart()))
}

// FormatDate formats a date as dd/mm/yyyy
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatTime formats a time of day as HH:MM
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}

// TicketIssuedText confirms a new ticket
func TicketIssuedText(ticketNumber, queueName string, position, waitMinutes int) string {
	return fmt.Sprintf("SmartQueue: Ticket #%s pris dans la file %s. Position: %d. Attente estimée: %d min.",
		ticketNumber, queueName, position, waitMinutes)
}

// TicketCalledText tells the customer to come to the counter
func TicketCalledText(ticketNumber, queueName string) string {
	return fmt.Sprintf("SmartQueue: C'est votre tour ! Ticket #%s, présentez-vous au guichet (%s).", ticketNumber, queueName)
}

// TurnApproachingText warns the customer a few turns ahead
func TurnApproachingText(ticketNumber string, turnsAhead int) string {
	return fmt.Sprintf("SmartQueue: Ticket #%s, plus que %d personne(s) avant vous. Rapprochez-vous du guichet.",
		ticketNumber, turnsAhead)
}

// TicketPaidText confirms the payment of an existing ticket
func TicketPaidText(ticketNumber, organizationName string) string {
	return fmt.Sprintf("SmartQueue: Paiement confirmé ! Votre ticket #%s est valide. Organisation: %s",
		ticketNumber, organizationName)
}

// AppointmentPaidText confirms the payment and the appointment
func AppointmentPaidText(appointmentNumber string, at time.Time, organizationName string) string {
	return fmt.Sprintf("SmartQueue: Paiement confirmé ! RDV #%s confirmé le %s à %s chez %s",
		appointmentNumber, FormatDate(at), FormatTime(at), organizationName)
}

// TicketCreatedByPaymentText announces a ticket issued for a generic ticket fee
func TicketCreatedByPaymentText(ticketNumber, queueName, organizationName string) string {
	return fmt.Sprintf("SmartQueue: Paiement reçu ! Votre ticket #%s a été créé. File d'attente: %s. Rendez-vous à %s",
		ticketNumber, queueName, organizationName)
}

// PaymentFailedText reports a failed payment
func PaymentFailedText(paymentNumber string, amount decimal.Decimal, reason string) string {
	return fmt.Sprintf("SmartQueue: Échec du paiement %s de %s. %s. Veuillez réessayer.",
		paymentNumber, FormatAmount(amount), reason)
}

// AppointmentConfirmedText confirms an appointment
func AppointmentConfirmedText(appointmentNumber string, at time.Time, organizationName string) string {
	return fmt.Sprintf("SmartQueue: RDV #%s confirmé le %s à %s chez %s",
		appointmentNumber, FormatDate(at), FormatTime(at), organizationName)
}
