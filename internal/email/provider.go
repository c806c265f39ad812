package email

// Provider определяет интерфейс для отправки email.
type Provider interface {
	// Send отправляет простое email сообщение.
	Send(email *Email) error

	// SendTemplate рендерит шаблон и отправляет письмо получателям.
	SendTemplate(to []string, subject string, templateName string, data TemplateData) error

	// Validate проверяет конфигурацию провайдера.
	Validate() error
}

// TemplateRenderer определяет интерфейс для рендеринга шаблонов.
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
}
