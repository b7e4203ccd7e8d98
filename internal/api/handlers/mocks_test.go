package handlers

import (
	"context"
	"errors"

	"github.com/ajmal017/dailyScript/internal/engine"
	"github.com/ajmal017/dailyScript/internal/models"
)

// fakeEngine управляемая тестом замена координатора
type fakeEngine struct {
	placed    []models.PairRequest
	placeErr  error
	cancelled []string
	cancelErr error
	running   []models.PairStatus
	finished  []models.PairStatus
	statuses  map[string]models.PairStatus
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{statuses: make(map[string]models.PairStatus)}
}

func (f *fakeEngine) PlacePairTrade(_ context.Context, req models.PairRequest) (*engine.PairOrder, error) {
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	f.placed = append(f.placed, req)
	return engine.NewPairOrder(req), nil
}

func (f *fakeEngine) CancelPairTrade(id string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeEngine) RunningPairs() []models.PairStatus  { return f.running }
func (f *fakeEngine) FinishedPairs() []models.PairStatus { return f.finished }

func (f *fakeEngine) Status(id string) (models.PairStatus, error) {
	st, ok := f.statuses[id]
	if !ok {
		return models.PairStatus{}, engine.ErrUnknownPair
	}
	return st, nil
}

// fakeFillStore выборки исполнений из памяти
type fakeFillStore struct {
	byPair map[string][]*models.FillRecord
	err    error
}

func newFakeFillStore() *fakeFillStore {
	return &fakeFillStore{byPair: make(map[string][]*models.FillRecord)}
}

func (f *fakeFillStore) GetByPairID(_ context.Context, pairID string) ([]*models.FillRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPair[pairID], nil
}

func (f *fakeFillStore) GetRecent(_ context.Context, limit int) ([]*models.FillRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.FillRecord
	for _, fills := range f.byPair {
		out = append(out, fills...)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var errStoreDown = errors.New("store unavailable")
