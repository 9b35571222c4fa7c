package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docspot/internal/model"
	"docspot/internal/service"
)

type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) BuyDocument(ctx context.Context, buyerID, documentID string) (*service.AccessResult, error) {
	args := m.Called(ctx, buyerID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessResult), args.Error(1)
}

func (m *MockAccessService) DownloadFree(ctx context.Context, userID, documentID string) (*service.AccessResult, error) {
	args := m.Called(ctx, userID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessResult), args.Error(1)
}

func (m *MockAccessService) Upvote(ctx context.Context, userID, documentID string) (int64, error) {
	args := m.Called(ctx, userID, documentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccessService) Downloads(ctx context.Context, userID string) ([]service.DownloadedDocument, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DownloadedDocument), args.Error(1)
}

func (m *MockAccessService) Activities(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Activity), args.Error(1)
}
