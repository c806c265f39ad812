package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

// TemplateManager реализует TemplateRenderer поверх html/template.
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер с набором встроенных шаблонов.
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}
	for name, body := range builtinTemplates {
		// Встроенные шаблоны статичны, ошибка парсинга невозможна
		// при корректной сборке.
		_ = tm.AddTemplate(name, body)
	}
	return tm
}

// Render рендерит шаблон с данными.
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// AddTemplate добавляет или заменяет шаблон.
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()
	return nil
}

var builtinTemplates = map[string]string{
	TemplateWelcome: `<h2>Добро пожаловать в Fixly, {{.Name}}!</h2>
<p>Ваш аккаунт создан. На бесплатном тарифе вам доступно {{.FreeLimit}} отклика на заказы.</p>`,

	TemplatePlanReceipt: `<h2>Подписка Pro активирована</h2>
<p>{{.Name}}, оплата тарифа «{{.PlanName}}» на сумму {{.Amount}} {{.Currency}} прошла успешно.</p>
<p>Подписка действует до {{.EndDate}}. Отклики на заказы теперь без ограничений.</p>`,

	TemplatePlanExpiring: `<h2>Подписка скоро закончится</h2>
<p>{{.Name}}, ваша подписка «{{.PlanName}}» истекает {{.EndDate}}.</p>
<p>Продлите ее, чтобы продолжать откликаться без ограничений.</p>`,

	TemplatePlanExpired: `<h2>Подписка завершена</h2>
<p>{{.Name}}, срок действия вашей подписки Pro истек. Вы переведены на бесплатный тариф.</p>`,
}
