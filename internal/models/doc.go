// Package models defines the core domain models for Evenup.
//
// # Models
//
//   - Event: a gathering (trip, party, shared household period) whose expenses
//     are tracked and settled together
//   - Participant: a person taking part in one event
//   - Family: a group of participants inside an event that settles as one unit
//     through its head
//   - FamilyTemplate: a reusable family definition owned by a user, stamped
//     into events on demand
//   - Expense: money paid by one participant on behalf of others, with a
//     split describing who owes what
//   - Settlement: a persisted transfer produced by the settlement engine
//
// # Design Principles
//
//  1. Identifiers are opaque strings (UUIDs); relationships use ID references,
//     never pointers, to avoid circular structures.
//  2. Money is decimal.Decimal end to end. Floats never touch an amount.
//  3. A split names its target through SplitTarget, a tagged
//     participant-or-family reference, so exactly one side is ever set.
//  4. Models validate themselves; services decide when validation runs.
package models
