// Package payments инкапсулирует интеграцию с платежным шлюзом Razorpay.
// Шлюз для нас - внешний черный ящик: мы создаем заказ, отдаем клиенту
// параметры чекаута, а подтверждение оплаты принимаем callback'ом
// с подписью, которую обязаны проверить сами.
package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type RazorpayService struct {
	KeyID     string
	KeySecret string
	Currency  string
}

func NewRazorpayService(keyID, keySecret string) *RazorpayService {
	return &RazorpayService{
		KeyID:     keyID,
		KeySecret: keySecret,
		Currency:  "INR",
	}
}

// Order - параметры созданного заказа, которые уходят на клиент
// для открытия чекаута.
type Order struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"key_id"`
}

// CreateOrder регистрирует заказ на оплату. OrderID в формате шлюза
// ("order_<id>") и дальше служит ключом идемпотентности активации.
func (r *RazorpayService) CreateOrder(amount float64) (*Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("razorpay: invalid order amount %.2f", amount)
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	return &Order{
		OrderID:  "order_" + id,
		Amount:   amount,
		Currency: r.Currency,
		KeyID:    r.KeyID,
	}, nil
}

// VerifyPaymentSignature проверяет подпись callback'а.
// Ожидаемая подпись: hex(HMAC-SHA256("<orderID>|<paymentID>", KeySecret)).
// Любое несовпадение трактуем как отказ - fail closed.
func (r *RazorpayService) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(r.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	// Сравнение за постоянное время, чтобы не утекала информация о подписи
	return hmac.Equal([]byte(expected), []byte(signature))
}
