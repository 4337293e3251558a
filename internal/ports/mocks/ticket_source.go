package mocks

import (
	"context"

	domain "github.com/bnema/ticketwatch/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

// MockTicketSource is a mock type for the TicketSource type
type MockTicketSource struct {
	mock.Mock
}

type MockTicketSource_Expecter struct {
	mock *mock.Mock
}

func (_m *MockTicketSource) EXPECT() *MockTicketSource_Expecter {
	return &MockTicketSource_Expecter{mock: &_m.Mock}
}

// ListTickets provides a mock function with given fields: ctx, token
func (_m *MockTicketSource) ListTickets(ctx context.Context, token domain.SessionToken) ([]domain.Ticket, error) {
	ret := _m.Called(ctx, token)

	if len(ret) == 0 {
		panic("no return value specified for ListTickets")
	}

	var r0 []domain.Ticket
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, domain.SessionToken) ([]domain.Ticket, error)); ok {
		return rf(ctx, token)
	}
	if rf, ok := ret.Get(0).(func(context.Context, domain.SessionToken) []domain.Ticket); ok {
		r0 = rf(ctx, token)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.Ticket)
	}

	if rf, ok := ret.Get(1).(func(context.Context, domain.SessionToken) error); ok {
		r1 = rf(ctx, token)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockTicketSource_ListTickets_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'ListTickets'
type MockTicketSource_ListTickets_Call struct {
	*mock.Call
}

// ListTickets is a helper method to define mock.On call
//   - ctx context.Context
//   - token domain.SessionToken
func (_e *MockTicketSource_Expecter) ListTickets(ctx interface{}, token interface{}) *MockTicketSource_ListTickets_Call {
	return &MockTicketSource_ListTickets_Call{Call: _e.mock.On("ListTickets", ctx, token)}
}

func (_c *MockTicketSource_ListTickets_Call) Run(run func(ctx context.Context, token domain.SessionToken)) *MockTicketSource_ListTickets_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(domain.SessionToken))
	})
	return _c
}

func (_c *MockTicketSource_ListTickets_Call) Return(_a0 []domain.Ticket, _a1 error) *MockTicketSource_ListTickets_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// NewMockTicketSource creates a new instance of MockTicketSource. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTicketSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTicketSource {
	mock := &MockTicketSource{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
