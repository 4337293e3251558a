package mocks

import (
	"context"

	domain "github.com/bnema/ticketwatch/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

// MockNotifier is a mock type for the Notifier type
type MockNotifier struct {
	mock.Mock
}

type MockNotifier_Expecter struct {
	mock *mock.Mock
}

func (_m *MockNotifier) EXPECT() *MockNotifier_Expecter {
	return &MockNotifier_Expecter{mock: &_m.Mock}
}

// Notify provides a mock function with given fields: ctx, ticket
func (_m *MockNotifier) Notify(ctx context.Context, ticket domain.Ticket) bool {
	ret := _m.Called(ctx, ticket)

	if len(ret) == 0 {
		panic("no return value specified for Notify")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.Ticket) bool); ok {
		return rf(ctx, ticket)
	}
	return ret.Get(0).(bool)
}

// MockNotifier_Notify_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Notify'
type MockNotifier_Notify_Call struct {
	*mock.Call
}

// Notify is a helper method to define mock.On call
//   - ctx context.Context
//   - ticket domain.Ticket
func (_e *MockNotifier_Expecter) Notify(ctx interface{}, ticket interface{}) *MockNotifier_Notify_Call {
	return &MockNotifier_Notify_Call{Call: _e.mock.On("Notify", ctx, ticket)}
}

func (_c *MockNotifier_Notify_Call) Run(run func(ctx context.Context, ticket domain.Ticket)) *MockNotifier_Notify_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(domain.Ticket))
	})
	return _c
}

func (_c *MockNotifier_Notify_Call) Return(_a0 bool) *MockNotifier_Notify_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockNotifier creates a new instance of MockNotifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNotifier {
	mock := &MockNotifier{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
