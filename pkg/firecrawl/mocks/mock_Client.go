// Package mocks provides test doubles for the firecrawl client.
package mocks

import (
	"context"

	firecrawl "github.com/sells-group/extract-chat/pkg/firecrawl"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Extract provides a mock function with given fields: ctx, req
func (_m *MockClient) Extract(ctx context.Context, req firecrawl.ExtractRequest) (*firecrawl.ExtractResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Extract")
	}

	var r0 *firecrawl.ExtractResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, firecrawl.ExtractRequest) (*firecrawl.ExtractResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, firecrawl.ExtractRequest) *firecrawl.ExtractResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*firecrawl.ExtractResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, firecrawl.ExtractRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GetExtractStatus provides a mock function with given fields: ctx, id
func (_m *MockClient) GetExtractStatus(ctx context.Context, id string) (*firecrawl.ExtractStatusResponse, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for GetExtractStatus")
	}

	var r0 *firecrawl.ExtractStatusResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*firecrawl.ExtractStatusResponse, error)); ok {
		return rf(ctx, id)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *firecrawl.ExtractStatusResponse); ok {
		r0 = rf(ctx, id)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*firecrawl.ExtractStatusResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, id)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
