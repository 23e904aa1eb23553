package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/service"
	"github.com/enjeyisback/HRMS/pkg/testutil"
)

func TestCompensationResolver_ExpandsPercentages(t *testing.T) {
	e := newEngine()
	f := e.fixtures
	emp := f.Employee()
	e.compensation.add(f.Assignment(emp.ID, effectiveJan,
		testutil.Line(f.Component("  BASIC   pay "), "20000"),
		testutil.Line(f.Component("HRA", testutil.PercentOf(domain.MethodPercentOfBasic, "40")), "0"),
		testutil.Line(f.Component("Special Allowance"), "2000"),
		testutil.Line(f.Component("Bonus", testutil.PercentOf(domain.MethodPercentOfGross, "10")), "0"),
		testutil.Line(f.Component("Welfare", testutil.AsDeduction(), testutil.PercentOf(domain.MethodPercentOfBasic, "1")), "0"),
	))

	comp, err := e.resolver.Resolve(context.Background(), emp.ID, april(t))
	require.NoError(t, err)

	assertMoney(t, "20000", comp.Basic, "basic")
	require.Len(t, comp.Lines, 5)
	assertMoney(t, "8000", comp.Lines[1].BaseAmount, "hra")
	assertMoney(t, "3000", comp.Lines[3].BaseAmount, "bonus")
	assertMoney(t, "200", comp.Lines[4].BaseAmount, "welfare")
	assertMoney(t, "33000", comp.MonthlyGross, "monthly gross")
}

func TestCompensationResolver_PicksLatestEffectiveAssignment(t *testing.T) {
	e := newEngine()
	f := e.fixtures
	emp := f.Employee()
	e.compensation.add(f.Assignment(emp.ID, effectiveJan, testutil.Line(f.Component("Basic"), "10000")))
	e.compensation.add(f.Assignment(emp.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), testutil.Line(f.Component("Basic"), "12000")))
	e.compensation.add(f.Assignment(emp.ID, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), testutil.Line(f.Component("Basic"), "15000")))

	comp, err := e.resolver.Resolve(context.Background(), emp.ID, april(t))
	require.NoError(t, err)
	assertMoney(t, "12000", comp.Basic, "basic")
}

func TestCompensationResolver_RoundsExpandedAmounts(t *testing.T) {
	e := newEngine()
	f := e.fixtures

	comp := e.resolver.Expand("a-1", effectiveJan, []domain.AssignmentLine{
		testutil.Line(f.Component("Basic"), "1000"),
		testutil.Line(f.Component("HRA", testutil.PercentOf(domain.MethodPercentOfBasic, "33.333")), "0"),
	})
	assertMoney(t, "333.33", comp.Lines[1].BaseAmount, "hra")
}

func TestCompensationResolver_NoBasicLine(t *testing.T) {
	e := newEngine()
	f := e.fixtures

	comp := e.resolver.Expand("a-1", effectiveJan, []domain.AssignmentLine{
		testutil.Line(f.Component("Consolidated Pay"), "15000"),
		testutil.Line(f.Component("HRA", testutil.PercentOf(domain.MethodPercentOfBasic, "40")), "0"),
	})
	assertMoney(t, "0", comp.Basic, "basic")
	assertMoney(t, "0", comp.Lines[1].BaseAmount, "hra")
	assertMoney(t, "15000", comp.MonthlyGross, "monthly gross")
}

func TestCompensationResolver_ConfiguredBasicNames(t *testing.T) {
	r := service.NewCompensationResolver(newFakeCompensation(), []string{"Grundgehalt"})
	f := testutil.NewFixtureFactory()

	assert.True(t, r.IsBasic(f.Component("grundgehalt")))
	assert.False(t, r.IsBasic(f.Component("Basic")))
	assert.False(t, r.IsBasic(f.Component("Grundgehalt", testutil.AsDeduction())))
}

func TestCompensationResolver_Errors(t *testing.T) {
	e := newEngine()

	_, err := e.resolver.Resolve(context.Background(), "missing", april(t))
	assert.ErrorIs(t, err, domain.ErrNoActiveAssignment)
	assert.NotErrorIs(t, err, domain.ErrDataFetch)

	e.compensation.err = errors.New("timeout")
	_, err = e.resolver.Resolve(context.Background(), "emp-1", april(t))
	assert.ErrorIs(t, err, domain.ErrDataFetch)
	assert.NotErrorIs(t, err, domain.ErrNoActiveAssignment)
}

func TestCompensationResolver_BasicAsPercentOfGross(t *testing.T) {
	e := newEngine()
	f := e.fixtures

	comp := e.resolver.Expand("a-1", effectiveJan, []domain.AssignmentLine{
		testutil.Line(f.Component("Special Allowance"), "40000"),
		testutil.Line(f.Component("Basic", testutil.PercentOf(domain.MethodPercentOfGross, "50")), "0"),
		testutil.Line(f.Component("HRA", testutil.PercentOf(domain.MethodPercentOfBasic, "40")), "0"),
	})

	assertMoney(t, "20000", comp.Basic, "basic")
	assertMoney(t, "20000", comp.Lines[1].BaseAmount, "basic line")
	assertMoney(t, "8000", comp.Lines[2].BaseAmount, "hra")
	assertMoney(t, "68000", comp.MonthlyGross, "monthly gross")
}
