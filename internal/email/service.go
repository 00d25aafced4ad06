package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"

	"github.com/example/storefront/internal/order"
)

// Service sends order confirmation mail via SMTP.
type Service struct {
	host string
	port string
	from string
}

func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// OrderPlaced sends the confirmation for a placed order. Best-effort: a
// delivery failure is logged, never surfaced to the buyer.
func (s *Service) OrderPlaced(_ context.Context, o *order.Order) {
	to := o.ShippingInfo.Email
	if to == "" {
		return
	}
	shortID := o.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	subject := fmt.Sprintf("Order confirmation #%s", shortID)
	body := BuildOrderConfirmationBody(o)
	if err := s.send(to, subject, body); err != nil {
		log.Printf("[Email] Failed to send confirmation for order %s: %v", o.ID, err)
	}
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
