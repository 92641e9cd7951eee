package email

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Service sends HTML mail through an SMTP relay. Username may be empty
// for relays that accept unauthenticated submission (MailHog, local postfix).
type Service struct {
	host     string
	port     string
	from     string
	username string
	password string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type Option func(*Service)

// WithAuth enables PLAIN authentication.
func WithAuth(username, password string) Option {
	return func(s *Service) {
		s.username = username
		s.password = password
	}
}

func NewService(host, port, from string, opts ...Option) *Service {
	s := &Service{
		host:     host,
		port:     port,
		from:     from,
		sendMail: smtp.SendMail,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers one message. Header injection through to or subject is
// rejected.
func (s *Service) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("email: empty recipient")
	}
	if strings.ContainsAny(to+subject, "\r\n") {
		return fmt.Errorf("email: invalid header value")
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	return s.sendMail(net.JoinHostPort(s.host, s.port), auth, s.from, []string{to}, buildMessage(s.from, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body))
}
