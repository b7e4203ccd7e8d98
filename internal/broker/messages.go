package broker

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Горячий путь разбора: котировки приходят сплошным потоком,
// поэтому используется jsoniter вместо encoding/json
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Операции протокола моста
const (
	opLogin       = "login"
	opSubscribe   = "subscribe"
	opQuote       = "quote"
	opOrderInsert = "order_insert"
	opOrderCancel = "order_cancel"
	opOrderStatus = "order_status"
	opOrderReject = "order_reject"
	opCancelAck   = "cancel_ack"
)

// Frame конверт сообщения моста: операция плюс полезная нагрузка
type Frame struct {
	Op   string              `json:"op"`
	Data jsoniter.RawMessage `json:"data,omitempty"`
}

// LoginRequest аутентификация торговой сессии
type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

// SubscribeRequest подписка на котировки инструментов
type SubscribeRequest struct {
	Symbols []string `json:"symbols"`
}

// QuoteMessage обновление котировки первого уровня
type QuoteMessage struct {
	Symbol    string  `json:"symbol"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	BidVolume float64 `json:"bid_volume"`
	AskVolume float64 `json:"ask_volume"`
	Ts        int64   `json:"ts"` // миллисекунды unix
}

// OrderInsertRequest выставление лимитного ордера
type OrderInsertRequest struct {
	Key      string  `json:"key"` // клиентский ключ ордера
	Symbol   string  `json:"symbol"`
	Exchange string  `json:"exchange,omitempty"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Ref      string  `json:"ref,omitempty"`
}

// OrderCancelRequest запрос отмены по клиентскому ключу
type OrderCancelRequest struct {
	Key string `json:"key"`
}

// OrderStatusMessage прогресс ордера от шлюза
type OrderStatusMessage struct {
	Key       string  `json:"key"`
	Status    string  `json:"status"`
	FilledQty float64 `json:"filled_qty"`
	AvgPrice  float64 `json:"avg_price"`
}

// OrderRejectMessage отклонение ордера шлюзом или биржей
type OrderRejectMessage struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// CancelAckMessage подтверждение отмены
type CancelAckMessage struct {
	Key string `json:"key"`
}

// encodeFrame упаковывает полезную нагрузку в конверт операции
func encodeFrame(op string, payload interface{}) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s frame: %w", op, err)
	}
	return Frame{Op: op, Data: data}, nil
}
