package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/domain/inventory"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) LowStockItems(ctx context.Context, policy inventory.ThresholdPolicy) ([]inventory.LowStockItem, error) {
	args := m.Called(ctx, policy)
	items, _ := args.Get(0).([]inventory.LowStockItem)
	return items, args.Error(1)
}

type gaugeRecorder struct {
	mu     sync.Mutex
	counts map[inventory.Department]int
	calls  int
}

func (r *gaugeRecorder) SetLowStockItems(department inventory.Department, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[inventory.Department]int)
	}
	r.counts[department] = count
	r.calls++
}

func (r *gaugeRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func lowItem(dept inventory.Department, name string, qty int64) inventory.LowStockItem {
	return inventory.LowStockItem{
		Key:       inventory.ItemKey{Department: dept, Name: name},
		Quantity:  qty,
		Threshold: 10,
	}
}

func TestNewLowStockSweeper_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config LowStockSweeperConfig
	}{
		{"zero interval", LowStockSweeperConfig{Departments: []inventory.Department{inventory.DepartmentLab}}},
		{"no departments", LowStockSweeperConfig{Interval: time.Minute}},
		{"unknown department", LowStockSweeperConfig{Interval: time.Minute, Departments: []inventory.Department{"RADIOLOGY"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLowStockSweeper(tt.config, &mockLister{}, nil, nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLowStockSweeper_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("records counts per department", func(t *testing.T) {
		lister := &mockLister{}
		lister.On("LowStockItems", mock.Anything, inventory.ThresholdPolicy{Department: inventory.DepartmentPharmacy}).
			Return([]inventory.LowStockItem{lowItem(inventory.DepartmentPharmacy, "Ondansetron 4", 3)}, nil)
		lister.On("LowStockItems", mock.Anything, inventory.ThresholdPolicy{Department: inventory.DepartmentLab}).
			Return([]inventory.LowStockItem{}, nil)
		recorder := &gaugeRecorder{}

		s, err := NewLowStockSweeper(DefaultLowStockSweeperConfig(), lister, recorder, nil)
		require.NoError(t, err)

		result, err := s.Sweep(ctx)
		require.NoError(t, err)
		assert.Len(t, result[inventory.DepartmentPharmacy], 1)
		assert.Equal(t, map[inventory.Department]int{
			inventory.DepartmentPharmacy: 1,
			inventory.DepartmentLab:      0,
		}, recorder.counts)
		assert.False(t, s.LastRun().IsZero())
		lister.AssertExpectations(t)
	})

	t.Run("one failing department does not stop the other", func(t *testing.T) {
		lister := &mockLister{}
		lister.On("LowStockItems", mock.Anything, inventory.ThresholdPolicy{Department: inventory.DepartmentPharmacy}).
			Return(nil, errors.New("connection reset"))
		lister.On("LowStockItems", mock.Anything, inventory.ThresholdPolicy{Department: inventory.DepartmentLab}).
			Return([]inventory.LowStockItem{lowItem(inventory.DepartmentLab, "Lancets", 0)}, nil)
		recorder := &gaugeRecorder{}

		s, err := NewLowStockSweeper(DefaultLowStockSweeperConfig(), lister, recorder, nil)
		require.NoError(t, err)

		result, err := s.Sweep(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PHARMACY")
		assert.Len(t, result[inventory.DepartmentLab], 1)
		assert.Equal(t, map[inventory.Department]int{inventory.DepartmentLab: 1}, recorder.counts)
	})
}

func TestLowStockSweeper_StartStop(t *testing.T) {
	lister := &mockLister{}
	lister.On("LowStockItems", mock.Anything, mock.Anything).Return([]inventory.LowStockItem{}, nil)
	recorder := &gaugeRecorder{}

	s, err := NewLowStockSweeper(LowStockSweeperConfig{
		Interval:    10 * time.Millisecond,
		Departments: []inventory.Department{inventory.DepartmentLab},
	}, lister, recorder, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.ErrorIs(t, s.Start(ctx), ErrAlreadyRunning)

	assert.Eventually(t, func() bool { return recorder.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx))
}
