package mocks

import (
	"context"

	domain "github.com/bnema/ticketwatch/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

// MockSessionManager is a mock type for the SessionManager type
type MockSessionManager struct {
	mock.Mock
}

type MockSessionManager_Expecter struct {
	mock *mock.Mock
}

func (_m *MockSessionManager) EXPECT() *MockSessionManager_Expecter {
	return &MockSessionManager_Expecter{mock: &_m.Mock}
}

// Acquire provides a mock function with given fields: ctx
func (_m *MockSessionManager) Acquire(ctx context.Context) (domain.SessionToken, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Acquire")
	}

	var r0 domain.SessionToken
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (domain.SessionToken, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) domain.SessionToken); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(domain.SessionToken)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockSessionManager_Acquire_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Acquire'
type MockSessionManager_Acquire_Call struct {
	*mock.Call
}

// Acquire is a helper method to define mock.On call
//   - ctx context.Context
func (_e *MockSessionManager_Expecter) Acquire(ctx interface{}) *MockSessionManager_Acquire_Call {
	return &MockSessionManager_Acquire_Call{Call: _e.mock.On("Acquire", ctx)}
}

func (_c *MockSessionManager_Acquire_Call) Run(run func(ctx context.Context)) *MockSessionManager_Acquire_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context))
	})
	return _c
}

func (_c *MockSessionManager_Acquire_Call) Return(_a0 domain.SessionToken, _a1 error) *MockSessionManager_Acquire_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// Release provides a mock function with given fields: ctx, token
func (_m *MockSessionManager) Release(ctx context.Context, token domain.SessionToken) {
	_m.Called(ctx, token)
}

// MockSessionManager_Release_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Release'
type MockSessionManager_Release_Call struct {
	*mock.Call
}

// Release is a helper method to define mock.On call
//   - ctx context.Context
//   - token domain.SessionToken
func (_e *MockSessionManager_Expecter) Release(ctx interface{}, token interface{}) *MockSessionManager_Release_Call {
	return &MockSessionManager_Release_Call{Call: _e.mock.On("Release", ctx, token)}
}

func (_c *MockSessionManager_Release_Call) Run(run func(ctx context.Context, token domain.SessionToken)) *MockSessionManager_Release_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(domain.SessionToken))
	})
	return _c
}

func (_c *MockSessionManager_Release_Call) Return() *MockSessionManager_Release_Call {
	_c.Call.Return()
	return _c
}

// NewMockSessionManager creates a new instance of MockSessionManager. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockSessionManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionManager {
	mock := &MockSessionManager{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
