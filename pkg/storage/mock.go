package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockObjectStorage) Owns(url string) bool {
	args := m.Called(url)
	return args.Bool(0)
}

type MockReducer struct {
	mock.Mock
}

func (m *MockReducer) Reduce(ctx context.Context, data []byte, contentType string) ([]byte, error) {
	args := m.Called(ctx, data, contentType)
	if v, ok := args.Get(0).([]byte); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
