package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/models"
	"fixly_backend/pkg/apperrors"
)

type messageFixture struct {
	service   MessageService
	messages  *fakeMessageRepo
	jobs      *fakeJobRepo
	users     *fakeUserRepo
	userPlans *fakeUserPlanRepo
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	messages := newFakeMessageRepo()
	jobs := newFakeJobRepo()
	users := newFakeUserRepo()
	userPlans := newFakeUserPlanRepo()

	service := NewMessageService(messages, jobs, users, userPlans)

	require.NoError(t, users.Create(&models.User{
		BaseModel: models.BaseModel{ID: "fixer-1"},
		Email:     "fixer@test.local",
		Role:      models.UserRoleFixer,
		Status:    models.UserStatusActive,
	}))
	require.NoError(t, userPlans.Create(&models.UserPlan{
		UserID: "fixer-1",
		Type:   models.PlanTypeFree,
		Status: models.PlanStatusActive,
	}))
	require.NoError(t, jobs.Create(&models.Job{
		BaseModel: models.BaseModel{ID: "job-1"},
		HirerID:   "hirer-1",
		Title:     "Собрать шкаф",
		Status:    models.JobStatusOpen,
	}))

	return &messageFixture{
		service:   service,
		messages:  messages,
		jobs:      jobs,
		users:     users,
		userPlans: userPlans,
	}
}

func TestMessageFixerToHirerWithinQuota(t *testing.T) {
	fx := newMessageFixture(t)

	msg, err := fx.service.Send("fixer-1", "job-1", "hirer-1", &dto.MessageRequest{Body: "Могу завтра"})
	require.NoError(t, err)
	assert.Equal(t, "fixer-1", msg.SenderID)
	assert.Equal(t, "hirer-1", msg.RecipientID)
}

func TestMessageFixerBlockedWhenQuotaExhausted(t *testing.T) {
	fx := newMessageFixture(t)
	for i := 0; i < 3; i++ {
		jobID := "charged-job-" + string(rune('1'+i))
		require.NoError(t, fx.userPlans.ChargeCredit("fixer-1", jobID, "app"))
	}

	_, err := fx.service.Send("fixer-1", "job-1", "hirer-1", &dto.MessageRequest{Body: "Могу завтра"})
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
}

func TestMessageHirerReplyNotGated(t *testing.T) {
	fx := newMessageFixture(t)
	for i := 0; i < 3; i++ {
		jobID := "charged-job-" + string(rune('1'+i))
		require.NoError(t, fx.userPlans.ChargeCredit("fixer-1", jobID, "app"))
	}

	// Ответ нанимателя проходит даже при исчерпанной квоте фиксера.
	_, err := fx.service.Send("hirer-1", "job-1", "fixer-1", &dto.MessageRequest{Body: "Жду в 10:00"})
	require.NoError(t, err)
}

func TestMessageOutsideJobRejected(t *testing.T) {
	fx := newMessageFixture(t)

	// Ни отправитель, ни получатель не являются нанимателем заказа.
	_, err := fx.service.Send("fixer-1", "job-1", "fixer-2", &dto.MessageRequest{Body: "Привет"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)
}
