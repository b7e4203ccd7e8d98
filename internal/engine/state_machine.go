package engine

import "github.com/ajmal017/dailyScript/internal/models"

// ValidTransitions определяет допустимые переходы между состояниями парной сделки
var ValidTransitions = map[string][]string{
	models.PairStateCreated:        {models.PairStateAwaitingFill, models.PairStateFinished},
	models.PairStateAwaitingFill:   {models.PairStateFullyFilled, models.PairStatePartialExposed, models.PairStateFinished},
	models.PairStateFullyFilled:    {models.PairStateFinished},
	models.PairStatePartialExposed: {models.PairStateRecovering, models.PairStateFinished},
	models.PairStateRecovering:     {models.PairStateFinished},
	models.PairStateFinished:       {}, // терминальное
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalState возвращает true для терминального состояния
func IsTerminalState(s string) bool {
	return s == models.PairStateFinished
}

// StateInfo возвращает описание состояния
func StateInfo(s string) string {
	switch s {
	case models.PairStateCreated:
		return "Триггер зарегистрирован, ожидание условия входа"
	case models.PairStateAwaitingFill:
		return "Ноги входа отправлены, ожидание заполнения"
	case models.PairStateFullyFilled:
		return "Обе ноги заполнены полностью"
	case models.PairStatePartialExposed:
		return "Окно ожидания истекло при неполном заполнении"
	case models.PairStateRecovering:
		return "Протокол восстановления активен"
	case models.PairStateFinished:
		return "Сделка завершена"
	default:
		return "Неизвестное состояние"
	}
}
