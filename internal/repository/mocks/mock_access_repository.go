package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docspot/internal/model"
)

type MockAccessLogRepository struct {
	mock.Mock
}

func (m *MockAccessLogRepository) RecordDownload(ctx context.Context, userID, documentID string, usedKey *string) (*model.DownloadedDoc, error) {
	args := m.Called(ctx, userID, documentID, usedKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadedDoc), args.Error(1)
}

func (m *MockAccessLogRepository) RecordActivity(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Activity), args.Error(1)
}

func (m *MockAccessLogRepository) ListDownloads(ctx context.Context, userID string) ([]model.DownloadedDoc, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DownloadedDoc), args.Error(1)
}

func (m *MockAccessLogRepository) ListActivities(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Activity), args.Error(1)
}

func (m *MockAccessLogRepository) PurchaseMismatches(ctx context.Context) ([]model.PurchaseMismatch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PurchaseMismatch), args.Error(1)
}
