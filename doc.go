// Package fundsync tracks a list of Chinese mutual funds, estimates their
// intraday net asset value and turns each estimate into a row of the fund
// valuation datasheet.
//
// The list of tracked funds is a small JSON file, meant to be edited with the
// `fundctl funds` commands. Estimates come from the fundgz package, and rows
// are pushed to the datasheet by the vika package.
package fundsync
