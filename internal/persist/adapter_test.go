package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sessioncal/internal/model"
)

type mockKV struct {
	mock.Mock
}

func (m *mockKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Bool(1), args.Error(2)
}

func (m *mockKV) Put(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockKV) Close() error { return nil }

func TestAdapterLoadTreatsBadSlotsAsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(kv *mockKV)
	}{
		{
			name: "absent",
			setup: func(kv *mockKV) {
				kv.On("Get", mock.Anything, mock.Anything).Return(nil, false, nil)
			},
		},
		{
			name: "read failure",
			setup: func(kv *mockKV) {
				kv.On("Get", mock.Anything, mock.Anything).Return(nil, false, errors.New("disk gone"))
			},
		},
		{
			name: "corrupt json",
			setup: func(kv *mockKV) {
				kv.On("Get", mock.Anything, mock.Anything).Return([]byte(`[{"id":`), true, nil)
			},
		},
		{
			name: "object instead of array",
			setup: func(kv *mockKV) {
				kv.On("Get", mock.Anything, mock.Anything).Return([]byte(`{"a":1}`), true, nil)
			},
		},
		{
			name: "null",
			setup: func(kv *mockKV) {
				kv.On("Get", mock.Anything, mock.Anything).Return([]byte(`null`), true, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kv := new(mockKV)
			tt.setup(kv)
			a := NewAdapter(kv, "mock")

			events := a.LoadEvents(context.Background())
			templates := a.LoadTemplates(context.Background())

			assert.NotNil(t, events)
			assert.Empty(t, events)
			assert.NotNil(t, templates)
			assert.Empty(t, templates)
			kv.AssertCalled(t, "Get", mock.Anything, EventsSlot)
			kv.AssertCalled(t, "Get", mock.Anything, TemplatesSlot)
		})
	}
}

func TestAdapterSaveAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := NewAdapter(NewMemoryKV(), "memory")

	events := []model.Event{
		{ID: "1", Title: "Yoga", Color: "#3498db", Date: "2024-02-01", StartTime: "09:00", Duration: "1"},
	}
	templates := []model.Template{{ID: "t", Name: "Yoga", Title: "Yoga", Duration: "1"}}

	require.NoError(t, a.SaveEvents(ctx, events))
	require.NoError(t, a.SaveTemplates(ctx, templates))

	assert.Equal(t, events, a.LoadEvents(ctx))
	assert.Equal(t, templates, a.LoadTemplates(ctx))

	require.NoError(t, a.SaveEvents(ctx, nil))
	raw, err := a.ReadSlot(ctx, EventsSlot)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestAdapterLoadNormalizesLegacyRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(ctx, EventsSlot, []byte(`[{"id":1712345678901.5,"title":"Yoga","date":"2024-2-1","startTime":"9:00","duration":1}]`)))

	got := NewAdapter(kv, "memory").LoadEvents(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "1712345678901.5", got[0].ID)
	assert.Equal(t, "2024-02-01", got[0].Date)
	assert.Equal(t, "09:00", got[0].StartTime)
	assert.Equal(t, "1", got[0].Duration)
}

func TestAdapterSaveReportsWriteFailure(t *testing.T) {
	t.Parallel()

	kv := new(mockKV)
	kv.On("Put", mock.Anything, EventsSlot, []byte("[]")).Return(errors.New("read-only"))

	err := NewAdapter(kv, "mock").SaveEvents(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
	kv.AssertExpectations(t)
}
