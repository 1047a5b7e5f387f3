package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service sends transactional mail.
type Service interface {
	SendVerificationEmail(to, name, token string) error
}

type Config struct {
	Host        string `yaml:"host" mapstructure:"host"`
	Port        int    `yaml:"port" mapstructure:"port"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	FromAddress string `yaml:"from_address" mapstructure:"from_address"`
	FromName    string `yaml:"from_name" mapstructure:"from_name"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
}

type smtpService struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewSMTPService(cfg Config) Service {
	return &smtpService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendVerificationEmail(to, name, token string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Verify your email address")
	m.SetBody("text/html", fmt.Sprintf(
		`<p>Hello %s,</p>
<p>Please verify your email address by clicking the link below:</p>
<p><a href="%s/central/auth/verify-email?token=%s">Verify email</a></p>
<p>The link expires in 24 hours.</p>`,
		name, s.cfg.BaseURL, token,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// NoopService is used when SMTP is not configured, e.g. local development.
type NoopService struct{}

func (NoopService) SendVerificationEmail(to, name, token string) error { return nil }
