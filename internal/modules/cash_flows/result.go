package cash_flows

import (
	"github.com/aristath/minesim/internal/modules/environment"
)

// Output table names
const (
	TableRevenue     = "revenue"
	TableCost        = "cost"
	TableFinancing   = "financing"
	TableLeaseIncome = "lease_income"
	TableProfit      = "profit"
	TableCash        = "cash"
)

// TableNames lists the output tables in report order
var TableNames = []string{TableRevenue, TableCost, TableFinancing, TableLeaseIncome, TableProfit, TableCash}

// Result holds the trials × years output tables of one evaluation
type Result struct {
	Revenue     *environment.Table
	Cost        *environment.Table
	Financing   *environment.Table
	LeaseIncome *environment.Table
	Profit      *environment.Table
	Cash        *environment.Table
}

func newResult(trials, years int) *Result {
	return &Result{
		Revenue:     mustZero(trials, years),
		Cost:        mustZero(trials, years),
		Financing:   mustZero(trials, years),
		LeaseIncome: mustZero(trials, years),
		Profit:      mustZero(trials, years),
		Cash:        mustZero(trials, years),
	}
}

// Table returns an output table by name
func (r *Result) Table(name string) (*environment.Table, bool) {
	switch name {
	case TableRevenue:
		return r.Revenue, true
	case TableCost:
		return r.Cost, true
	case TableFinancing:
		return r.Financing, true
	case TableLeaseIncome:
		return r.LeaseIncome, true
	case TableProfit:
		return r.Profit, true
	case TableCash:
		return r.Cash, true
	}
	return nil, false
}

// Records flattens every table into long-form rows, table by table
func (r *Result) Records() []environment.Record {
	trials, years := r.Cash.Dims()
	out := make([]environment.Record, 0, len(TableNames)*trials*years)
	for _, name := range TableNames {
		t, _ := r.Table(name)
		out = append(out, t.Records(name)...)
	}
	return out
}
