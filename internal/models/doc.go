// Package models defines the domain models for splitbook.
//
// # Records
//
//   - Participant: a person on the roster who can pay or owe
//   - Expense: one shared cost with a payer, a split and a status
//
// # Derived values
//
// The following are recomputed from records on every request and never stored:
//   - Balances: net amount per participant over pending expenses
//   - MemberBalance: paid/owed/net summary for one participant
//   - Settlement: a suggested payment between two participants
//
// # Splits
//
// An expense's Split is a closed variant, either EqualSplit or CustomSplit.
// Code that branches on it uses a type switch over exactly those two types.
// In JSON the variant is flattened to "splitType" and "customSplits" so the
// records stay compatible with the browser app's stored data.
//
// Participant IDs are plain strings. Expenses may keep referring to an ID
// after the participant has been removed from the roster.
package models
