// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import "github.com/penny-vault/pvmetrics/data"

// Statement identifies one of the four financial statements present in an
// uploaded workbook. Each statement has an annual and a TTM sheet.
type Statement string

const (
	Income       Statement = "Income"
	Ratios       Statement = "Ratios"
	BalanceSheet Statement = "Balance-Sheet"
	CashFlow     Statement = "Cash-Flow"
)

func (stmt Statement) AnnualSheet() string {
	return string(stmt) + "-Annual"
}

func (stmt Statement) TTMSheet() string {
	return string(stmt) + "-TTM"
}

// Field maps a metric to the statement it is read from and the row labels
// that may hold it. Labels are tried in order; the first is the canonical label.
type Field struct {
	Metric    string
	Statement Statement
	Labels    []string
	Optional  bool
}

var Fields = map[string]*Field{
	data.RevenueKey: {
		Metric: data.RevenueKey, Statement: Income,
		Labels: []string{"Revenue", "Total Revenue", "Sales"},
	},
	data.CostOfRevenueKey: {
		Metric: data.CostOfRevenueKey, Statement: Income,
		Labels: []string{"Cost of Revenue", "Cost of Goods Sold", "COGS", "Cost of Sales"},
	},
	data.SGAKey: {
		Metric: data.SGAKey, Statement: Income,
		Labels: []string{"Selling, General & Admin", "Selling, General & Administrative", "Selling, General and Administrative", "SG&A"},
	},
	data.EBITDAKey: {
		Metric: data.EBITDAKey, Statement: Income,
		Labels: []string{"EBITDA"},
	},
	data.OperatingMarginKey: {
		Metric: data.OperatingMarginKey, Statement: Income,
		Labels: []string{"Operating Margin", "Operating Margin %", "Operating Income Margin", "Op Margin"},
	},
	data.PretaxIncomeKey: {
		Metric: data.PretaxIncomeKey, Statement: Income,
		Labels: []string{"Pretax Income", "Pre-tax Income", "Pre Tax Income", "Earnings Before Tax", "Income Before Tax"},
	},
	data.NetIncomeKey: {
		Metric: data.NetIncomeKey, Statement: Income,
		Labels: []string{"Net Income", "Net Income (Loss)", "Net Earnings", "Net Profit"},
	},
	data.EffectiveTaxRateKey: {
		Metric: data.EffectiveTaxRateKey, Statement: Income,
		Labels: []string{"Effective Tax Rate", "Effective Tax Rate %", "Tax Rate"},
	},
	data.EBITKey: {
		Metric: data.EBITKey, Statement: Income,
		Labels: []string{"EBIT", "Operating Income", "Earnings Before Interest and Taxes"},
	},
	data.InterestExpenseKey: {
		Metric: data.InterestExpenseKey, Statement: Income,
		Labels: []string{"Interest Expense / Income", "Interest Expense"},
	},
	data.OperatingIncomeKey: {
		Metric: data.OperatingIncomeKey, Statement: Income,
		Labels: []string{"Operating Income", "EBIT"},
	},
	data.ResearchDevelopmentKey: {
		Metric: data.ResearchDevelopmentKey, Statement: Income,
		Labels: []string{"Research & Development", "Research and Development", "R&D", "R & D"},
	},

	data.MarketCapitalizationKey: {
		Metric: data.MarketCapitalizationKey, Statement: Ratios,
		Labels: []string{"Market Capitalization", "Market Cap", "Market Cap (in millions)", "Market Capitalization (in millions)"},
	},
	data.ROICKey: {
		Metric: data.ROICKey, Statement: Ratios,
		Labels: []string{
			"Return on Invested Capital (ROIC)",
			"Return on Invested Capital (ROIC)%",
			"Return on Invested Capital (ROIC) %",
			"Return on Invested Capital %",
			"Return on Invested Capital",
			"ROIC",
		},
	},

	data.TotalAssetsKey: {
		Metric: data.TotalAssetsKey, Statement: BalanceSheet,
		Labels: []string{"Total Assets"},
	},
	data.TotalCurrentAssetsKey: {
		Metric: data.TotalCurrentAssetsKey, Statement: BalanceSheet,
		Labels: []string{"Total Current Assets"},
	},
	data.TotalCurrentLiabilitiesKey: {
		Metric: data.TotalCurrentLiabilitiesKey, Statement: BalanceSheet,
		Labels: []string{"Total Current Liabilities"},
	},
	data.TotalLongTermLiabilitiesKey: {
		Metric: data.TotalLongTermLiabilitiesKey, Statement: BalanceSheet,
		Labels: []string{"Total Long-Term Liabilities", "Total Long Term Liabilities"},
	},
	data.TotalDebtKey: {
		Metric: data.TotalDebtKey, Statement: BalanceSheet,
		Labels: []string{"Total Debt"},
	},
	data.CurrentDebtKey: {
		Metric: data.CurrentDebtKey, Statement: BalanceSheet,
		Labels: []string{"Current Debt", "Short-Term Debt", "Short Term Debt"},
	},
	data.CashKey: {
		Metric: data.CashKey, Statement: BalanceSheet,
		Labels: []string{"Cash & Cash Equivalents", "Cash and Cash Equivalents"},
	},
	data.LongTermInvestmentsKey: {
		Metric: data.LongTermInvestmentsKey, Statement: BalanceSheet,
		Labels: []string{"Long-Term Investments", "Long Term Investments"},
	},
	data.ShortTermInvestmentsKey: {
		Metric: data.ShortTermInvestmentsKey, Statement: BalanceSheet,
		Labels: []string{"Short-Term Investments", "Short Term Investments"},
	},
	data.AccountsReceivableKey: {
		Metric: data.AccountsReceivableKey, Statement: BalanceSheet,
		Labels: []string{"Accounts Receivable", "Receivables"},
	},
	data.ShareholdersEquityKey: {
		Metric: data.ShareholdersEquityKey, Statement: BalanceSheet,
		Labels: []string{"Shareholders Equity", "Total Equity", "Total Shareholders' Equity", "Total Stockholders' Equity"},
	},
	data.RetainedEarningsKey: {
		Metric: data.RetainedEarningsKey, Statement: BalanceSheet,
		Labels: []string{"Retained Earnings"},
	},
	data.ComprehensiveIncomeKey: {
		Metric: data.ComprehensiveIncomeKey, Statement: BalanceSheet,
		Labels: []string{"Comprehensive Income"},
	},

	data.CapitalExpendituresKey: {
		Metric: data.CapitalExpendituresKey, Statement: CashFlow,
		Labels: []string{"Capital Expenditures", "Capital Expenditure", "CapEx", "Purchase of Property, Plant & Equipment"},
	},
	data.DepreciationAmortizationKey: {
		Metric: data.DepreciationAmortizationKey, Statement: CashFlow,
		Labels: []string{"Depreciation & Amortization", "Depreciation and Amortization", "Depreciation", "Depreciation/Amortization", "D&A"},
	},
	data.NetDebtIssuedPaidKey: {
		Metric: data.NetDebtIssuedPaidKey, Statement: CashFlow,
		Labels: []string{"Debt Issued / Paid", "Debt Issued/ Paid", "Debt Issued/Paid"},
		// many non-US templates have no dedicated debt issuance line
		Optional: true,
	},
}
