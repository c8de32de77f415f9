package service

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/hotel-booking/internal/config"
)

// BookingSummary is what the confirmation mail tells the guest.
type BookingSummary struct {
	HotelName  string    `json:"hotelName"`
	RoomType   string    `json:"roomType"`
	CheckIn    time.Time `json:"checkInDate"`
	CheckOut   time.Time `json:"checkOutDate"`
	TotalPrice float64   `json:"totalPrice"`
	Guests     int       `json:"guests"`
}

const confirmationSubject = "Booking Created Successfully"

// Mailer sends transactional mail over SMTP.  With no host configured it
// accepts every message and sends nothing.
type Mailer struct {
	cfg  config.MailConfig
	send func(msgs ...*gomail.Message) error
}

func NewMailer(cfg config.MailConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	if cfg.Host != "" {
		m.send = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass).DialAndSend
	}
	return m
}

// Enabled reports whether an SMTP relay is configured.
func (m *Mailer) Enabled() bool { return m.send != nil }

// ConfirmationText renders the plain text body of a booking confirmation.
func ConfirmationText(s BookingSummary) string {
	return fmt.Sprintf(`Your booking has been confirmed.
Hotel: %s
Room: %s
Check-in Date: %s
Check-out Date: %s
Total Price: %s
Guests: %d
Thank you for using our service.
`, s.HotelName, s.RoomType, s.CheckIn.Format("2006-01-02"), s.CheckOut.Format("2006-01-02"),
		formatPrice(s.TotalPrice), s.Guests)
}

func formatPrice(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%.2f", p)
}

// SendBookingConfirmation mails the summary of a new booking to to.
func (m *Mailer) SendBookingConfirmation(ctx context.Context, to string, s BookingSummary) error {
	if m.send == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", confirmationSubject)
	msg.SetBody("text/plain", ConfirmationText(s))
	return m.send(msg)
}
