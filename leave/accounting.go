/*
accounting.go - Quota arithmetic

PURPOSE:
  Pure functions over a user and their leave category. No side effects,
  no store access, no caching; callers load the category themselves.

SEE ALSO:
  - service.go: Loads the category and applies these inside transactions
*/
package leave

import "github.com/shopspring/decimal"

// DaysLeft returns the remaining quota for a user under their category.
// Fails with ErrNoCategory when the user has no category assigned; callers
// must branch before relying on the result.
func DaysLeft(u *User, cat *LeaveCategory) (int, error) {
	if u.LeaveCategoryID == nil || cat == nil {
		return 0, ErrNoCategory
	}
	return cat.MaxDays - u.Days, nil
}

// Utilization returns the consumed share of the quota as a percentage,
// rounded to two decimal places. Exact decimal arithmetic keeps the admin
// console figures free of float artifacts.
func Utilization(u *User, cat *LeaveCategory) (decimal.Decimal, error) {
	if u.LeaveCategoryID == nil || cat == nil {
		return decimal.Zero, ErrNoCategory
	}
	if cat.MaxDays == 0 {
		return decimal.Zero, nil
	}
	used := decimal.NewFromInt(int64(u.Days))
	max := decimal.NewFromInt(int64(cat.MaxDays))
	return used.Div(max).Mul(decimal.NewFromInt(100)).Round(2), nil
}
