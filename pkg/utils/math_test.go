package utils

import (
	"math"
	"testing"
)

// ============================================================
// Тесты RoundToTick
// ============================================================

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		tickSize float64
		expected float64
	}{
		// Базовые кейсы
		{"exact match", 101.35, 0.05, 101.35},
		{"on-grid tick 0.1", 57.3, 0.1, 57.3},
		{"round down", 5432.7, 1.0, 5432.0},
		{"round down small tick", 101.37, 0.05, 101.35},

		// Граничные случаи
		{"zero price", 0, 1.0, 0},
		{"zero tick", 101.37, 0, 101.37},
		{"negative tick", 101.37, -1.0, 101.37},

		// Типичные фьючерсные шаги
		{"tick 0.5", 3120.7, 0.5, 3120.5},
		{"tick 2", 5431.0, 2.0, 5430.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToTick(tt.price, tt.tickSize)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToTick(%v, %v) = %v, want %v",
					tt.price, tt.tickSize, result, tt.expected)
			}
		})
	}
}

func TestRoundToTickUp(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		tickSize float64
		expected float64
	}{
		{"exact match", 101.35, 0.05, 101.35},
		{"on-grid tick 0.01", 0.07, 0.01, 0.07},
		{"round up", 5432.1, 1.0, 5433.0},
		{"zero tick", 101.37, 0, 101.37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToTickUp(tt.price, tt.tickSize)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToTickUp(%v, %v) = %v, want %v",
					tt.price, tt.tickSize, result, tt.expected)
			}
		})
	}
}

func TestRoundToTickNearest(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		tickSize float64
		expected float64
	}{
		{"round down", 5432.4, 1.0, 5432.0},
		{"round up", 5432.6, 1.0, 5433.0},
		{"midpoint rounds up", 5432.5, 1.0, 5433.0}, // Go округляет 0.5 вверх
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToTickNearest(tt.price, tt.tickSize)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToTickNearest(%v, %v) = %v, want %v",
					tt.price, tt.tickSize, result, tt.expected)
			}
		})
	}
}

// ============================================================
// Тесты PairSpread
// ============================================================

func TestPairSpread(t *testing.T) {
	tests := []struct {
		name     string
		leg1     float64
		leg2     float64
		expected float64
	}{
		{"positive spread", 101.0, 100.0, 1.0},
		{"negative spread", 100.0, 101.0, -1.0},
		{"zero spread", 100.0, 100.0, 0.0},
		{"wide spread", 5500.0, 5430.0, 70.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PairSpread(tt.leg1, tt.leg2)
			if !floatEquals(result, tt.expected) {
				t.Errorf("PairSpread(%v, %v) = %v, want %v",
					tt.leg1, tt.leg2, result, tt.expected)
			}
		})
	}
}

// ============================================================
// Тесты CalculatePNL
// ============================================================

func TestCalculatePNL(t *testing.T) {
	tests := []struct {
		name         string
		side         string
		entryPrice   float64
		currentPrice float64
		quantity     float64
		multiplier   float64
		expected     float64
	}{
		// Long PNL
		{"long profit", "long", 100.0, 110.0, 1.0, 1.0, 10.0},
		{"long loss", "long", 100.0, 90.0, 1.0, 1.0, -10.0},
		{"long breakeven", "long", 100.0, 100.0, 1.0, 1.0, 0.0},

		// Short PNL
		{"short profit", "short", 100.0, 90.0, 1.0, 1.0, 10.0},
		{"short loss", "short", 100.0, 110.0, 1.0, 1.0, -10.0},

		// Множитель контракта
		{"long with multiplier", "long", 100.0, 105.0, 2.0, 10.0, 100.0},
		{"short with multiplier", "short", 5430.0, 5420.0, 1.0, 10.0, 100.0},

		// Граничные случаи
		{"zero quantity", "long", 100.0, 110.0, 0, 1.0, 0},
		{"zero multiplier treated as 1", "long", 100.0, 110.0, 1.0, 0, 10.0},
		{"invalid side", "buy", 100.0, 110.0, 1.0, 1.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculatePNL(tt.side, tt.entryPrice, tt.currentPrice, tt.quantity, tt.multiplier)
			if !floatEquals(result, tt.expected) {
				t.Errorf("CalculatePNL(%s, %v, %v, %v, %v) = %v, want %v",
					tt.side, tt.entryPrice, tt.currentPrice, tt.quantity,
					tt.multiplier, result, tt.expected)
			}
		})
	}
}

// ============================================================
// Бенчмарки
// ============================================================

func BenchmarkRoundToTick(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RoundToTick(5432.7, 0.5)
	}
}

func BenchmarkCalculatePNL(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CalculatePNL("long", 100.0, 110.0, 0.5, 10.0)
	}
}

// ============================================================
// Вспомогательные функции
// ============================================================

const floatEpsilon = 1e-6

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatEpsilon
}
