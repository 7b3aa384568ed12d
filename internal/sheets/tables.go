package sheets

import (
	"time"

	"bookkeeper/internal/ledger"
)

// CashflowHeaders are the columns written by CashflowTable
var CashflowHeaders = []string{
	"Group", "Account Type", "Account ID", "Account", "Currency",
	"Inflow", "Outflow", "Manual In", "Manual Out", "Net",
	"Transactions", "Manual Entries", "Flags",
}

// CashflowTable flattens a summary into sheet rows, one per line followed by
// one total row per currency of each group
func CashflowTable(summary *ledger.CashflowSummary) [][]interface{} {
	var rows [][]interface{}
	for _, g := range summary.Groups {
		for _, l := range g.Lines {
			rows = append(rows, []interface{}{
				g.Label,
				string(l.Account.Type),
				l.Account.ID,
				l.Name,
				l.Currency,
				l.Automatic.Inflow.String(),
				l.Automatic.Outflow.String(),
				l.Manual.Inflow.String(),
				l.Manual.Outflow.String(),
				l.Combined.Net.String(),
				l.TransactionCount,
				l.ManualEntryCount,
				lineFlags(l.Uninitialized, l.Undeclared),
			})
		}
		for _, t := range g.Totals {
			rows = append(rows, []interface{}{
				g.Label, "", "", "Total", t.Currency,
				t.Automatic.Inflow.String(),
				t.Automatic.Outflow.String(),
				t.Manual.Inflow.String(),
				t.Manual.Outflow.String(),
				t.Combined.Net.String(),
				"", "", "",
			})
		}
	}
	return rows
}

// BalanceHeaders are the columns written by BalanceTable
var BalanceHeaders = []string{
	"Account Type", "Account ID", "Account", "Company", "Currency",
	"Opening", "Movements", "Balance", "As Of", "Flags",
}

// BalanceTable flattens a balance report into sheet rows
func BalanceTable(lines []ledger.BalanceLine) [][]interface{} {
	rows := make([][]interface{}, 0, len(lines))
	for _, l := range lines {
		row := []interface{}{
			string(l.Account.Type), l.Account.ID, l.Name, l.CompanyID, l.Currency,
		}
		if l.Unavailable || l.Balance == nil {
			row = append(row, "", "", "", "", "unavailable: "+l.Error)
			rows = append(rows, row)
			continue
		}
		asOf := ""
		if l.Balance.AsOf != nil {
			asOf = l.Balance.AsOf.Format(time.DateOnly)
		}
		row = append(row,
			l.Balance.Opening.String(),
			l.Balance.Movements.String(),
			l.Balance.Amount.String(),
			asOf,
			lineFlags(l.Uninitialized, false),
		)
		rows = append(rows, row)
	}
	return rows
}

func lineFlags(uninitialized, undeclared bool) string {
	switch {
	case uninitialized && undeclared:
		return "uninitialized, undeclared"
	case uninitialized:
		return "uninitialized"
	case undeclared:
		return "undeclared"
	default:
		return ""
	}
}
