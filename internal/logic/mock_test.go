package logic_test

import (
	"context"

	"github.com/antonio-alexander/go-employee-crud/internal/data"

	"github.com/stretchr/testify/mock"
)

type mockSql struct {
	mock.Mock
}

func (m *mockSql) EmployeeInsert(ctx context.Context, employee data.Employee) (int64, error) {
	args := m.Called(ctx, employee)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSql) EmployeeFind(ctx context.Context, id int64) (*data.Employee, bool, error) {
	args := m.Called(ctx, id)
	employee, _ := args.Get(0).(*data.Employee)
	return employee, args.Bool(1), args.Error(2)
}

func (m *mockSql) EmployeesFindAll(ctx context.Context) ([]*data.Employee, error) {
	args := m.Called(ctx)
	employees, _ := args.Get(0).([]*data.Employee)
	return employees, args.Error(1)
}

func (m *mockSql) EmployeeReplace(ctx context.Context, employee data.Employee) (int64, error) {
	args := m.Called(ctx, employee)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSql) EmployeeDeleteById(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSql) ExecuteUpdate(ctx context.Context, statement string, args ...any) (int64, error) {
	arguments := m.Called(append([]any{ctx, statement}, args...)...)
	return arguments.Get(0).(int64), arguments.Error(1)
}
