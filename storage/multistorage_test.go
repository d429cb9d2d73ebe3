package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRevisionBackend implements interfaces.RevisionBackend for testing
type MockRevisionBackend struct {
	mock.Mock
	name string
}

func (m *MockRevisionBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRevisionBackend) Store(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockRevisionBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockRevisionBackend) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockRevisionBackend) Name() string {
	return m.name
}

func (m *MockRevisionBackend) LocationURI() string {
	return "mock:" + m.name
}

func TestMultiRevisionBackend_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.RevisionBackend
			for i, available := range tt.backends {
				mockBackend := &MockRevisionBackend{name: fmt.Sprintf("mock-%d", i)}
				mockBackend.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, mockBackend)
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiRevisionBackend(backends, logger)

			assert.Equal(t, tt.expected, multi.Available(context.Background()))

			for _, backend := range backends {
				backend.(*MockRevisionBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiRevisionBackend_Fetch(t *testing.T) {
	testKey := "7_deadbeef_contract_signed.pdf"
	testData := []byte("%PDF-1.4 test")
	testErr := errors.New("test error")

	tests := []struct {
		name          string
		setupMocks    func() []interfaces.RevisionBackend
		expectedData  []byte
		expectedError error
	}{
		{
			name: "first backend successful",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testKey).Return(testData, nil)

				// not reached
				mock2 := &MockRevisionBackend{name: "mock-B"}

				return []interfaces.RevisionBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name: "first backend fails, second succeeds",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testKey).Return(nil, testErr)

				mock2 := &MockRevisionBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testKey).Return(testData, nil)

				return []interfaces.RevisionBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name: "missing everywhere",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testKey).Return(nil, interfaces.ErrRevisionNotFound)

				mock2 := &MockRevisionBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testKey).Return(nil, interfaces.ErrRevisionNotFound)

				return []interfaces.RevisionBackend{mock1, mock2}
			},
			expectedError: interfaces.ErrRevisionNotFound,
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testKey).Return(nil, testErr)

				mock2 := &MockRevisionBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testKey).Return(nil, interfaces.ErrRevisionNotFound)

				return []interfaces.RevisionBackend{mock1, mock2}
			},
			expectedError: testErr,
		},
		{
			name: "no backend available",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)
				return []interfaces.RevisionBackend{mock1}
			},
			expectedError: interfaces.ErrBackendUnavailable,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)

				mock2 := &MockRevisionBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testKey).Return(testData, nil)

				return []interfaces.RevisionBackend{mock1, mock2}
			},
			expectedData: testData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiRevisionBackend(backends, logger)

			data, err := multi.Fetch(context.Background(), testKey)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedData, data)

			for _, backend := range backends {
				backend.(*MockRevisionBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiRevisionBackend_Store(t *testing.T) {
	testKey := "7_deadbeef_contract.pdf"
	testData := []byte("%PDF-1.4 test")
	testErr := errors.New("test error")

	tests := []struct {
		name          string
		setupMocks    func() []interfaces.RevisionBackend
		expectedError bool
	}{
		{
			name: "all backends successful",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Store", mock.Anything, testKey, testData).Return(nil)

				mock2 := &MockRevisionBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Store", mock.Anything, testKey, testData).Return(nil)

				return []interfaces.RevisionBackend{mock1, mock2}
			},
		},
		{
			name: "some backends fail",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Store", mock.Anything, testKey, testData).Return(nil)

				mock2 := &MockRevisionBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Store", mock.Anything, testKey, testData).Return(testErr)

				return []interfaces.RevisionBackend{mock1, mock2}
			},
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Store", mock.Anything, testKey, testData).Return(testErr)

				mock2 := &MockRevisionBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Store", mock.Anything, testKey, testData).Return(testErr)

				return []interfaces.RevisionBackend{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []interfaces.RevisionBackend {
				mock1 := &MockRevisionBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)

				mock2 := &MockRevisionBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Store", mock.Anything, testKey, testData).Return(nil)

				return []interfaces.RevisionBackend{mock1, mock2}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiRevisionBackend(backends, logger)

			err := multi.Store(context.Background(), testKey, testData)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			for _, backend := range backends {
				backend.(*MockRevisionBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiRevisionBackend_Delete(t *testing.T) {
	testKey := "7_deadbeef_contract_signed.pdf"

	mock1 := &MockRevisionBackend{name: "mock-A"}
	mock1.On("Delete", mock.Anything, testKey).Return(nil)
	mock2 := &MockRevisionBackend{name: "mock-B"}
	mock2.On("Delete", mock.Anything, testKey).Return(errors.New("boom"))

	multi := NewMultiRevisionBackend([]interfaces.RevisionBackend{mock1, mock2}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := multi.Delete(context.Background(), testKey)
	assert.ErrorContains(t, err, "mock-B")

	mock1.AssertExpectations(t)
	mock2.AssertExpectations(t)
}
