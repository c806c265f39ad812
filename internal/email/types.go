package email

// Email представляет одно исходящее письмо.
type Email struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// TemplateData - данные для подстановки в шаблон письма.
type TemplateData map[string]interface{}

// Имена встроенных шаблонов.
const (
	TemplateWelcome      = "welcome"
	TemplatePlanReceipt  = "plan_receipt"
	TemplatePlanExpiring = "plan_expiring"
	TemplatePlanExpired  = "plan_expired"
)
