package app

import (
	"fixly_backend/internal/email"
	"fixly_backend/internal/logger"
)

// MockEmailProvider используется для тестов и локальной разработки:
// вместо отправки пишет письмо в лог.
type MockEmailProvider struct{}

func (m *MockEmailProvider) Send(msg *email.Email) error {
	logger.Info("[MOCK EMAIL] send", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (m *MockEmailProvider) SendTemplate(to []string, subject string, templateName string, data email.TemplateData) error {
	logger.Info("[MOCK EMAIL] send template", "to", to, "subject", subject, "template", templateName)
	return nil
}

func (m *MockEmailProvider) Validate() error { return nil }
