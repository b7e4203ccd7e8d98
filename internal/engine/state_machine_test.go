package engine

import (
	"testing"

	"github.com/ajmal017/dailyScript/internal/models"
)

// ============================================================
// Тесты машины состояний
// ============================================================

func TestCanTransition_Valid(t *testing.T) {
	tests := []struct {
		from, to string
	}{
		{models.PairStateCreated, models.PairStateAwaitingFill},
		{models.PairStateCreated, models.PairStateFinished},
		{models.PairStateAwaitingFill, models.PairStateFullyFilled},
		{models.PairStateAwaitingFill, models.PairStatePartialExposed},
		{models.PairStateAwaitingFill, models.PairStateFinished},
		{models.PairStateFullyFilled, models.PairStateFinished},
		{models.PairStatePartialExposed, models.PairStateRecovering},
		{models.PairStateRecovering, models.PairStateFinished},
	}

	for _, tt := range tests {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}
}

func TestCanTransition_Invalid(t *testing.T) {
	tests := []struct {
		from, to string
	}{
		// Терминальное состояние не покидается
		{models.PairStateFinished, models.PairStateCreated},
		{models.PairStateFinished, models.PairStateRecovering},

		// Нельзя перескочить вход
		{models.PairStateCreated, models.PairStateFullyFilled},
		{models.PairStateCreated, models.PairStateRecovering},

		// Заполнение не регрессирует
		{models.PairStateFullyFilled, models.PairStateAwaitingFill},
		{models.PairStateRecovering, models.PairStateAwaitingFill},

		// Неизвестные состояния
		{"UNKNOWN", models.PairStateFinished},
	}

	for _, tt := range tests {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be rejected", tt.from, tt.to)
		}
	}
}

func TestIsTerminalState(t *testing.T) {
	if !IsTerminalState(models.PairStateFinished) {
		t.Error("FINISHED must be terminal")
	}
	for _, s := range []string{
		models.PairStateCreated,
		models.PairStateAwaitingFill,
		models.PairStateFullyFilled,
		models.PairStatePartialExposed,
		models.PairStateRecovering,
	} {
		if IsTerminalState(s) {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestStateInfo_AllStatesDescribed(t *testing.T) {
	states := []string{
		models.PairStateCreated,
		models.PairStateAwaitingFill,
		models.PairStateFullyFilled,
		models.PairStatePartialExposed,
		models.PairStateRecovering,
		models.PairStateFinished,
	}
	for _, s := range states {
		if StateInfo(s) == "Неизвестное состояние" {
			t.Errorf("state %s has no description", s)
		}
	}
}
