package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventCheckoutSessionCompleted — единственный тип события, на который система реагирует.
// Остальные типы подтверждаются без обработки ради прямой совместимости.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// DefaultTolerance — допустимый возраст подписи; более старые заголовки
// отклоняются как защита от replay-атак.
const DefaultTolerance = 5 * time.Minute

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedHeader  = errors.New("malformed signature header")
)

// Event — конверт вебхука Stripe; разбираются только нужные поля.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Object SessionObject `json:"object"`
}

// SessionObject — объект платёжной сессии внутри события.
type SessionObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// VerifySignature проверяет заголовок Stripe-Signature вида "t=<unix>,v1=<hex>".
// Подписывается строка "<t>.<payload>" ключом секрета вебхука (HMAC-SHA256).
// Сравнение — константное по времени; ошибки формата и ошибки подписи
// для внешнего наблюдателя неразличимы (обе ведут к отказу до обращения к БД).
func VerifySignature(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) error {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return err
	}

	if tolerance > 0 && now.Sub(time.Unix(timestamp, 0)) > tolerance {
		return ErrInvalidSignature
	}

	expected := computeSignature(payload, secret, timestamp)
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignPayload собирает корректный заголовок подписи — используется тестами
// и любым локальным имитатором провайдера.
func SignPayload(payload []byte, secret string, now time.Time) string {
	timestamp := now.Unix()
	sig := computeSignature(payload, secret, timestamp)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(sig))
}

func computeSignature(payload []byte, secret string, timestamp int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, ErrMalformedHeader
	}

	var timestamp int64 = -1
	var signatures []string
	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return 0, nil, ErrMalformedHeader
		}
		switch strings.TrimSpace(parts[0]) {
		case "t":
			ts, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return 0, nil, ErrMalformedHeader
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, parts[1])
		default:
			// неизвестные схемы подписи игнорируются
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, ErrMalformedHeader
	}
	return timestamp, signatures, nil
}
