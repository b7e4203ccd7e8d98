package utils

import (
	"math"
)

// math.go - математические утилиты для парной торговли фьючерсами
//
// Назначение:
// Вспомогательные математические функции для ценовых расчётов.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - RoundToTick: округление цены до шага цены инструмента
// - PairSpread: расчёт спреда между ногами в абсолютных ценах
// - CalculatePNL: прибыль/убыток позиции с учётом множителя контракта

// RoundToTick округляет цену ВНИЗ до ближайшего кратного tickSize.
//
// Используется для приведения расчётной цены к допустимой сетке цен
// биржи перед отправкой ордера.
//
// Параметры:
//   - price: исходная цена
//   - tickSize: минимальный шаг цены инструмента
//
// Возвращает:
//   - Округлённую цену, кратную tickSize
//   - Если tickSize <= 0, возвращает исходную цену
//
// Примеры:
//   - RoundToTick(5432.7, 1.0) = 5432.0
//   - RoundToTick(101.37, 0.05) = 101.35
func RoundToTick(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	// Эпсилон гасит погрешность деления: цена, уже лежащая на сетке,
	// не должна уезжать на тик вниз (101.35/0.05 = 2026.9999...)
	return math.Floor(price/tickSize+1e-9) * tickSize
}

// RoundToTickUp округляет цену ВВЕРХ до ближайшего кратного tickSize.
//
// Для покупки по агрессивной цене безопаснее округлять вверх:
// ордер останется немедленно исполнимым.
func RoundToTickUp(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	return math.Ceil(price/tickSize-1e-9) * tickSize
}

// RoundToTickNearest округляет цену к ближайшему кратному tickSize.
func RoundToTickNearest(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	return math.Round(price/tickSize) * tickSize
}

// PairSpread расчитывает спред между ногами пары в абсолютных ценах.
//
// Формула:
//
//	spread = priceLeg1 - priceLeg2
//
// Какая сторона котировки подставляется в какую ногу, определяет
// направление сделки (BUY: ask ноги 1 минус bid ноги 2; SELL: наоборот).
//
// Параметры:
//   - priceLeg1: цена первой ноги
//   - priceLeg2: цена второй ноги
//
// Возвращает:
//   - Спред в единицах цены (может быть отрицательным)
func PairSpread(priceLeg1, priceLeg2 float64) float64 {
	return priceLeg1 - priceLeg2
}

// CalculatePNL расчитывает прибыль/убыток по позиции с учётом
// множителя контракта.
//
// Формулы:
//   - Long PNL = (P_close - P_open) × qty × multiplier
//   - Short PNL = (P_open - P_close) × qty × multiplier
//
// Параметры:
//   - side: "long" или "short"
//   - entryPrice: цена входа
//   - currentPrice: текущая цена (bid для лонга, ask для шорта)
//   - quantity: объём позиции в контрактах
//   - multiplier: множитель контракта (<= 0 трактуется как 1)
//
// Возвращает:
//   - PNL в валюте счёта
func CalculatePNL(side string, entryPrice, currentPrice, quantity, multiplier float64) float64 {
	if quantity <= 0 {
		return 0
	}
	if multiplier <= 0 {
		multiplier = 1
	}

	switch side {
	case "long":
		// Лонг: прибыль если цена выросла
		return (currentPrice - entryPrice) * quantity * multiplier
	case "short":
		// Шорт: прибыль если цена упала
		return (entryPrice - currentPrice) * quantity * multiplier
	default:
		return 0
	}
}

// Abs возвращает абсолютное значение числа.
func Abs(x float64) float64 {
	return math.Abs(x)
}
