/*
scenarios_test.go - Tests for demo scenarios

Each scenario must load through the services without tripping a rule and
leave the state its description promises.
*/
package api

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_List(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/scenarios", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), len(scenarios))
}

func TestScenario_CarryForward(t *testing.T) {
	// GIVEN: The carry-forward scenario
	r, h := setupRouter(t)

	// WHEN: Loading it
	rec := do(t, r, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "carry-forward"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The previous allocation handed 10 days (capped) to the new one
	rec = do(t, r, http.MethodGet, "/api/leave-allocations?employee=EMP-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	allocations := decodeBody[[]AllocationDTO](t, rec)
	require.Len(t, allocations, 2)

	prev, current := allocations[0], allocations[1]
	assert.True(t, prev.Expired)
	assert.True(t, prev.CarryForwardedLeavesCount.Equal(decimal.NewFromInt(10)))
	assert.True(t, current.UnusedLeaves.Equal(decimal.NewFromInt(10)))
	assert.True(t, current.TotalLeavesAllocated.Equal(decimal.NewFromInt(25)))

	// AND: This year's balance is new plus carried leaves
	year := strconv.Itoa(time.Now().Year())
	rec = do(t, r, http.MethodGet, "/api/employees/EMP-001/leave-balance?leave_type=Privilege%20Leave&date="+year+"-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[BalanceDTO](t, rec).Balance.Equal(decimal.NewFromInt(25)))

	// AND: The scenario is current
	rec = do(t, r, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "carry-forward", decodeBody[ScenarioDTO](t, rec).ID)
	assert.Equal(t, "carry-forward", h.currentScenario)
}

func TestScenario_PaymentTerms(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(t, r, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "payment-terms"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/sales-orders/SO-DEMO-0001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	so := decodeBody[SalesOrderDTO](t, rec)
	assert.Len(t, so.PaymentSchedule, 3)
	assert.Len(t, so.Items, 1)

	rec = do(t, r, http.MethodGet, "/api/sales-invoices?company="+"Demo%20Company", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]SalesInvoiceDTO](t, rec), 2)
}

func TestScenario_UnknownAndReset(t *testing.T) {
	r, h := setupRouter(t)

	rec := do(t, r, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "payment-terms"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.currentScenario)

	rec = do(t, r, http.MethodGet, "/api/companies", nil)
	assert.Empty(t, decodeBody[[]map[string]any](t, rec))
}
