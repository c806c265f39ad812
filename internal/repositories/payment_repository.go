package repositories

import (
	"errors"
	"time"

	"fixly_backend/internal/models"

	"gorm.io/gorm"
)

var ErrPaymentOrderNotFound = errors.New("payment order not found")

type PaymentRepository interface {
	CreateOrder(order *models.PaymentOrder) error
	FindByOrderID(orderID string) (*models.PaymentOrder, error)
	FindByUser(userID string) ([]models.PaymentOrder, error)

	// ConsumeOrder переводит заказ из pending в paid ровно один раз.
	// Повторный вызов с тем же orderID возвращает ErrOrderAlreadyConsumed:
	// условный UPDATE по статусу закрывает гонку двух доставок callback'а.
	ConsumeOrder(orderID, paymentID string, paidAt time.Time) error

	MarkFailed(orderID string) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateOrder(order *models.PaymentOrder) error {
	return r.db.Create(order).Error
}

func (r *paymentRepository) FindByOrderID(orderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.Preload("Plan").Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *paymentRepository) FindByUser(userID string) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	err := r.db.Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *paymentRepository) ConsumeOrder(orderID, paymentID string, paidAt time.Time) error {
	result := r.db.Model(&models.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":     models.PaymentStatusPaid,
			"payment_id": paymentID,
			"paid_at":    paidAt,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Заказа нет либо он уже оплачен - различаем для вызывающего
		var order models.PaymentOrder
		err := r.db.Where("order_id = ?", orderID).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentOrderNotFound
		}
		if err != nil {
			return err
		}
		return ErrOrderAlreadyConsumed
	}
	return nil
}

func (r *paymentRepository) MarkFailed(orderID string) error {
	result := r.db.Model(&models.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":     models.PaymentStatusFailed,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentOrderNotFound
	}
	return nil
}
