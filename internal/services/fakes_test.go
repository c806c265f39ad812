package services

import (
	"fmt"
	"sync"
	"time"

	"fixly_backend/internal/email"
	"fixly_backend/internal/models"
	"fixly_backend/internal/repositories"
)

// In-memory фейки репозиториев. Сервисы пишут side-эффекты из
// горутин, поэтому все фейки защищены мьютексом.

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[string]*models.SubscriptionPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[string]*models.SubscriptionPlan)}
}

func (f *fakePlanRepo) Create(plan *models.SubscriptionPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if plan.ID == "" {
		plan.ID = fmt.Sprintf("plan-%d", len(f.plans)+1)
	}
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlanRepo) FindByID(id string) (*models.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[id]
	if !ok {
		return nil, repositories.ErrSubscriptionPlanNotFound
	}
	copied := *plan
	return &copied, nil
}

func (f *fakePlanRepo) FindActive() ([]models.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.SubscriptionPlan
	for _, plan := range f.plans {
		if plan.IsActive {
			result = append(result, *plan)
		}
	}
	return result, nil
}

func (f *fakePlanRepo) Update(plan *models.SubscriptionPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[plan.ID]; !ok {
		return repositories.ErrSubscriptionPlanNotFound
	}
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlanRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[id]; !ok {
		return repositories.ErrSubscriptionPlanNotFound
	}
	delete(f.plans, id)
	return nil
}

type fakeUserPlanRepo struct {
	mu      sync.Mutex
	plans   map[string]*models.UserPlan // ключ userID
	charges map[string]bool             // ключ userID+"|"+jobID
}

func newFakeUserPlanRepo() *fakeUserPlanRepo {
	return &fakeUserPlanRepo{
		plans:   make(map[string]*models.UserPlan),
		charges: make(map[string]bool),
	}
}

func (f *fakeUserPlanRepo) Create(plan *models.UserPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans[plan.UserID] = plan
	return nil
}

func (f *fakeUserPlanRepo) FindByUserID(userID string) (*models.UserPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[userID]
	if !ok {
		return nil, repositories.ErrPlanNotFound
	}
	copied := *plan
	return &copied, nil
}

func (f *fakeUserPlanRepo) ChargeCredit(userID, jobID, applicationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "|" + jobID
	if f.charges[key] {
		return repositories.ErrCreditAlreadyCharged
	}
	plan, ok := f.plans[userID]
	if !ok {
		return repositories.ErrPlanNotFound
	}
	f.charges[key] = true
	plan.CreditsUsed++
	return nil
}

func (f *fakeUserPlanRepo) ActivatePro(userID, planID string, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[userID]
	if !ok {
		return repositories.ErrPlanNotFound
	}
	plan.Type = models.PlanTypePro
	plan.Status = models.PlanStatusActive
	plan.PlanID = &planID
	plan.CreditsUsed = 0
	plan.StartDate = &start
	plan.EndDate = &end
	plan.CancelledAt = nil
	return nil
}

func (f *fakeUserPlanRepo) ExpirePro(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[userID]
	if !ok || plan.Type != models.PlanTypePro {
		return repositories.ErrPlanNotFound
	}
	plan.Status = models.PlanStatusExpired
	return nil
}

func (f *fakeUserPlanRepo) CancelPro(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[userID]
	if !ok || plan.Type != models.PlanTypePro || plan.Status != models.PlanStatusActive {
		return repositories.ErrPlanNotFound
	}
	now := time.Now()
	plan.Status = models.PlanStatusCancelled
	plan.CancelledAt = &now
	return nil
}

func (f *fakeUserPlanRepo) FindExpiring(days int) ([]models.UserPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	deadline := now.AddDate(0, 0, days)
	var result []models.UserPlan
	for _, plan := range f.plans {
		if plan.Type == models.PlanTypePro && plan.Status == models.PlanStatusActive &&
			plan.EndDate != nil && plan.EndDate.Before(deadline) && plan.EndDate.After(now) {
			result = append(result, *plan)
		}
	}
	return result, nil
}

func (f *fakeUserPlanRepo) FindExpired() ([]models.UserPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var result []models.UserPlan
	for _, plan := range f.plans {
		if plan.Type == models.PlanTypePro && plan.Status == models.PlanStatusActive &&
			plan.EndDate != nil && plan.EndDate.Before(now) {
			result = append(result, *plan)
		}
	}
	return result, nil
}

func (f *fakeUserPlanRepo) PlatformStats() (*repositories.PlanCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repositories.PlanCounts{}
	for _, plan := range f.plans {
		switch {
		case plan.Type == models.PlanTypeFree:
			stats.FreeUsers++
		case plan.Status == models.PlanStatusActive:
			stats.ProActive++
		case plan.Status == models.PlanStatusExpired:
			stats.ProExpired++
		case plan.Status == models.PlanStatusCancelled:
			stats.ProCancelled++
		}
	}
	return stats, nil
}

func (f *fakeUserPlanRepo) ProcessExpired() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var count int64
	for _, plan := range f.plans {
		if plan.Type == models.PlanTypePro && plan.Status == models.PlanStatusActive &&
			plan.EndDate != nil && plan.EndDate.Before(now) {
			plan.Status = models.PlanStatusExpired
			count++
		}
	}
	return count, nil
}

type fakePaymentRepo struct {
	mu     sync.Mutex
	orders map[string]*models.PaymentOrder // ключ orderID
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{orders: make(map[string]*models.PaymentOrder)}
}

func (f *fakePaymentRepo) CreateOrder(order *models.PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.OrderID] = order
	return nil
}

func (f *fakePaymentRepo) FindByOrderID(orderID string) (*models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repositories.ErrPaymentOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakePaymentRepo) FindByUser(userID string) ([]models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.PaymentOrder
	for _, order := range f.orders {
		if order.UserID == userID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (f *fakePaymentRepo) ConsumeOrder(orderID, paymentID string, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrPaymentOrderNotFound
	}
	if order.Status != models.PaymentStatusPending {
		return repositories.ErrOrderAlreadyConsumed
	}
	order.Status = models.PaymentStatusPaid
	order.PaymentID = paymentID
	order.PaidAt = &paidAt
	return nil
}

func (f *fakePaymentRepo) MarkFailed(orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrPaymentOrderNotFound
	}
	order.Status = models.PaymentStatusFailed
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) UpdateStatus(id string, status models.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Status = status
	return nil
}

func (f *fakeUserRepo) Update(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (f *fakeRefreshTokenRepo) Create(token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeRefreshTokenRepo) FindByToken(token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tokens[token]
	if !ok {
		return nil, repositories.ErrRefreshTokenNotFound
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeRefreshTokenRepo) Delete(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok {
		return repositories.ErrRefreshTokenNotFound
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshTokenRepo) DeleteByUser(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, stored := range f.tokens {
		if stored.UserID == userID {
			delete(f.tokens, token)
		}
	}
	return nil
}

func (f *fakeRefreshTokenRepo) DeleteExpired() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var count int64
	for token, stored := range f.tokens {
		if stored.ExpiresAt.Before(now) {
			delete(f.tokens, token)
			count++
		}
	}
	return count, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (f *fakeNotificationRepo) Create(n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(userID string, unreadOnly bool) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, n)
		}
	}
	return result, nil
}

func (f *fakeNotificationRepo) MarkRead(id, userID string) error { return nil }
func (f *fakeNotificationRepo) MarkAllRead(userID string) error  { return nil }

func (f *fakeNotificationRepo) CreateJobAssignedNotification(fixerID, jobID, jobTitle string) error {
	return f.Create(&models.Notification{UserID: fixerID, Type: models.NotificationJobAssigned, JobID: &jobID})
}

func (f *fakeNotificationRepo) CreateNewApplicationNotification(hirerID, jobID, jobTitle string) error {
	return f.Create(&models.Notification{UserID: hirerID, Type: models.NotificationNewApplication, JobID: &jobID})
}

func (f *fakeNotificationRepo) CreatePlanActivatedNotification(userID, planName string) error {
	return f.Create(&models.Notification{UserID: userID, Type: models.NotificationPlanActivated})
}

func (f *fakeNotificationRepo) CreatePlanExpiredNotification(userID string) error {
	return f.Create(&models.Notification{UserID: userID, Type: models.NotificationPlanExpired})
}

type fakeUsageRepo struct {
	mu     sync.Mutex
	events []string
}

func newFakeUsageRepo() *fakeUsageRepo { return &fakeUsageRepo{} }

func (f *fakeUsageRepo) Track(userID string, eventType string, metadata map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeUsageRepo) CountByEvent(eventType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, e := range f.events {
		if e == eventType {
			count++
		}
	}
	return count, nil
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*models.Job)}
}

func (f *fakeJobRepo) Create(job *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", len(f.jobs)+1)
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) FindByID(id string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, repositories.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) List(filter repositories.JobFilter) ([]models.Job, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Job
	for _, job := range f.jobs {
		if filter.City != "" && job.City != filter.City {
			continue
		}
		if filter.Category != "" && job.Category != filter.Category {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		result = append(result, *job)
	}
	return result, int64(len(result)), nil
}

func (f *fakeJobRepo) IncrementViews(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		job.Views++
	}
	return nil
}

func (f *fakeJobRepo) Update(job *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) Assign(jobID, fixerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return repositories.ErrJobNotFound
	}
	if job.Status != models.JobStatusOpen {
		return repositories.ErrJobNotOpen
	}
	job.Status = models.JobStatusAssigned
	job.AssignedFixerID = &fixerID
	return nil
}

func (f *fakeJobRepo) UpdateStatus(jobID string, status models.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return repositories.ErrJobNotFound
	}
	job.Status = status
	return nil
}

type fakeApplicationRepo struct {
	mu   sync.Mutex
	apps map[string]*models.JobApplication
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[string]*models.JobApplication)}
}

func (f *fakeApplicationRepo) Create(app *models.JobApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.apps {
		if existing.JobID == app.JobID && existing.FixerID == app.FixerID &&
			existing.Status != models.ApplicationStatusWithdrawn {
			return repositories.ErrApplicationAlreadyExists
		}
	}
	if app.ID == "" {
		app.ID = fmt.Sprintf("app-%d", len(f.apps)+1)
	}
	f.apps[app.ID] = app
	return nil
}

func (f *fakeApplicationRepo) FindByID(id string) (*models.JobApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return nil, repositories.ErrApplicationNotFound
	}
	copied := *app
	return &copied, nil
}

func (f *fakeApplicationRepo) ListByJob(jobID string) ([]models.JobApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.JobApplication
	for _, app := range f.apps {
		if app.JobID == jobID {
			result = append(result, *app)
		}
	}
	return result, nil
}

func (f *fakeApplicationRepo) ListByFixer(fixerID string) ([]models.JobApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.JobApplication
	for _, app := range f.apps {
		if app.FixerID == fixerID {
			result = append(result, *app)
		}
	}
	return result, nil
}

func (f *fakeApplicationRepo) HasApplied(jobID, fixerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, app := range f.apps {
		if app.JobID == jobID && app.FixerID == fixerID && app.Status != models.ApplicationStatusWithdrawn {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApplicationRepo) UpdateStatus(id string, status models.ApplicationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	app.Status = status
	return nil
}

func (f *fakeApplicationRepo) RejectOthers(jobID, acceptedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, app := range f.apps {
		if app.JobID == jobID && id != acceptedID && app.Status == models.ApplicationStatusPending {
			app.Status = models.ApplicationStatusRejected
		}
	}
	return nil
}

type fakeEmailProvider struct {
	mu   sync.Mutex
	sent []string // имена использованных шаблонов
}

func newFakeEmailProvider() *fakeEmailProvider { return &fakeEmailProvider{} }

func (f *fakeEmailProvider) Send(e *email.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, "raw")
	return nil
}

func (f *fakeEmailProvider) SendTemplate(to []string, subject string, templateName string, data email.TemplateData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, templateName)
	return nil
}

func (f *fakeEmailProvider) Validate() error { return nil }

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []*models.JobComment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (f *fakeCommentRepo) Create(comment *models.JobComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, comment)
	return nil
}

func (f *fakeCommentRepo) ListByJob(jobID string) ([]models.JobComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.JobComment
	for _, c := range f.comments {
		if c.JobID == jobID {
			result = append(result, *c)
		}
	}
	return result, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*models.JobMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Create(msg *models.JobMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMessageRepo) ListDialog(jobID, userA, userB string) ([]models.JobMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.JobMessage
	for _, m := range f.messages {
		if m.JobID != jobID {
			continue
		}
		if (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA) {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (f *fakeMessageRepo) MarkRead(jobID, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.JobID == jobID && m.RecipientID == recipientID {
			m.IsRead = true
		}
	}
	return nil
}
