package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/medchain/inventory-api/internal/config"
	"github.com/medchain/inventory-api/internal/model"
)

type Service interface {
	SendExpiryAlert(ctx context.Context, to string, expiring []*model.Medicine) error
	SendStockAlert(ctx context.Context, to string, depleted []*model.Medicine) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendExpiryAlert(ctx context.Context, to string, expiring []*model.Medicine) error {
	var b strings.Builder
	b.WriteString("The following medicines are close to expiry:\n\n")
	for _, m := range expiring {
		exp := time.Unix(m.ExpDate, 0).UTC().Format("2006-01-02")
		fmt.Fprintf(&b, "  %s (batch %s) expires %s, %d units left\n", m.Name, m.BatchNo, exp, m.Stock)
	}
	return s.send(to, "Medicine expiry alert", b.String())
}

func (s *smtpService) SendStockAlert(ctx context.Context, to string, depleted []*model.Medicine) error {
	var b strings.Builder
	b.WriteString("The following medicines are out of stock or running low:\n\n")
	for _, m := range depleted {
		fmt.Fprintf(&b, "  %s (batch %s): %d units (%s)\n", m.Name, m.BatchNo, m.Stock, m.StockStatus)
	}
	return s.send(to, "Stock level alert", b.String())
}

func (s *smtpService) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", subject, to, err)
	}
	return nil
}
