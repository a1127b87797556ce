package notification

import (
	"fmt"
	"net/smtp"
	"strings"
)

// MailConfig SMTP 配置
type MailConfig struct {
	Host     string
	Port     int64
	Username string
	Password string
	From     string
}

// Mailer 发送邮件的抽象，便于测试替换
type Mailer interface {
	Send(to, subject, body string) error
}

// OTPSender 验证码邮件的发送抽象
type OTPSender interface {
	SendOTPEmail(to, code string, expiryMinutes int) error
}

// MailNotification 基于 net/smtp 的实现
type MailNotification struct {
	cfg MailConfig
}

func NewMailNotification(cfg MailConfig) *MailNotification {
	return &MailNotification{cfg: cfg}
}

// Send 发送纯文本邮件
func (m *MailNotification) Send(to, subject, body string) error {
	if m.cfg.Host == "" || m.cfg.From == "" {
		return fmt.Errorf("mail not configured")
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}

// SendOTPEmail 发送验证码邮件
func (m *MailNotification) SendOTPEmail(to, code string, expiryMinutes int) error {
	subject := "Your Alertivo OTP"
	body := fmt.Sprintf("Your one-time code is %s. Expires in %d minutes.", code, expiryMinutes)
	return m.Send(to, subject, body)
}
