package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"quickstay/internal/adapters/observability"
	"quickstay/internal/domain"
)

const bookingTemplate = `
<h2>Your Booking Details</h2>
<p>Dear {{.GuestName}},</p>
<p>Thank you for your booking! Here are your details:</p>
<ul>
  <li><strong>Booking ID:</strong> {{.BookingID}}</li>
  <li><strong>Hotel Name:</strong> {{.HotelName}}</li>
  <li><strong>Location:</strong> {{.HotelAddress}}</li>
  <li><strong>Check-in:</strong> {{.CheckIn}}</li>
  <li><strong>Check-out:</strong> {{.CheckOut}}</li>
  <li><strong>Guests:</strong> {{.Guests}}</li>
  <li><strong>Nights:</strong> {{.Nights}}</li>
  <li><strong>Total Amount:</strong> {{.Total}}</li>
</ul>
<p>We look forward to welcoming you!</p>
<p>If you need to make any changes, feel free to contact us.</p>
`

type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
	tmpl *template.Template
}

func New(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{
		host: host,
		port: port,
		user: user,
		pass: pass,
		from: from,
		tmpl: template.Must(template.New("booking").Parse(bookingTemplate)),
	}
}

type bookingView struct {
	GuestName    string
	BookingID    string
	HotelName    string
	HotelAddress string
	CheckIn      string
	CheckOut     string
	Guests       int
	Nights       int
	Total        string
}

func (m *Mailer) SendBookingConfirmation(_ context.Context, bm domain.BookingMail) error {
	var body bytes.Buffer
	v := bookingView{
		GuestName:    bm.GuestName,
		BookingID:    bm.BookingID,
		HotelName:    bm.HotelName,
		HotelAddress: bm.HotelAddress,
		CheckIn:      bm.CheckIn.Format("Mon Jan 02 2006"),
		CheckOut:     bm.CheckOut.Format("Mon Jan 02 2006"),
		Guests:       bm.Guests,
		Nights:       bm.Nights,
		Total:        fmt.Sprintf("$ %.2f", float64(bm.TotalCents)/100),
	}
	if err := m.tmpl.Execute(&body, v); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", bm.To)
	msg.SetHeader("Subject", "Hotel Booking Details")
	msg.SetBody("text/html", body.String())

	start := time.Now()
	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	err := d.DialAndSend(msg)
	status := 200
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("smtp", "send", status, time.Since(start))
	return err
}
