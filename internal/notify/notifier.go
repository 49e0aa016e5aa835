// Package notify 提供请求通知邮件的发送与异步派发功能。
// 通知是尽力而为的副作用：发送失败只记日志，绝不影响触发它的请求结果。
package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Notifier 定义出站通知接口
type Notifier interface {
	Send(recipient, subject, htmlBody string) error
}

// SMTPMailer 基于SMTP的邮件通知实现
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer 创建SMTP邮件通知实例
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send 发送一封HTML邮件
func (m *SMTPMailer) Send(recipient, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", recipient, err)
	}
	return nil
}

// NopNotifier 空通知实现（通知关闭时使用）
type NopNotifier struct{}

// Send 不做任何事
func (NopNotifier) Send(recipient, subject, htmlBody string) error { return nil }
