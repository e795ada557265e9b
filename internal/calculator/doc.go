// Package calculator is the balance and settlement engine.
//
// Every function is a pure computation over its inputs: nothing is cached,
// nothing is mutated, and calling again with the same expenses and roster
// gives the same result. Callers recompute whenever their data changes.
//
//	balances := calculator.CalculateBalances(expenses, roster)
//	plan := calculator.PlanSettlements(balances)
//
// Amounts are float64 to stay compatible with stored data; comparisons use
// models.Tolerance (one cent).
package calculator
