package service

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// MailConfig 邀请邮件配置，Enable 为 false 时所有发送为空操作
type MailConfig struct {
	Enable   bool   `yaml:"enable"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Mailer 协作邀请邮件发送
type Mailer interface {
	// SendInvitation 发送协作邀请，失败只记录日志不阻断业务
	SendInvitation(toEmail string, inviterName string, noteTitle string, permission string)
}

type smtpMailer struct {
	config MailConfig
	logger *zap.Logger
}

// NewMailer 创建邮件发送器
func NewMailer(cfg MailConfig, log *zap.Logger) Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &smtpMailer{config: cfg, logger: log}
}

func (m *smtpMailer) SendInvitation(toEmail string, inviterName string, noteTitle string, permission string) {
	if !m.config.Enable {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", fmt.Sprintf("%s shared a note with you", inviterName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"%s invited you to collaborate on \"%s\" as %s.\nSign in with this email address to open it.",
		inviterName, noteTitle, permission))

	d := gomail.NewDialer(m.config.Host, m.config.Port, m.config.Username, m.config.Password)

	// 异步发送，不阻塞协作者写入路径
	go func() {
		if err := d.DialAndSend(msg); err != nil {
			m.logger.Warn("invitation mail send failed",
				zap.String("to", toEmail),
				zap.Error(err))
		}
	}()
}
