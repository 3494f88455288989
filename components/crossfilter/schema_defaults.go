package crossfilter

func builtinReportSchemas() map[string][]ColumnDefinition {
	return map[string][]ColumnDefinition{
		"churn-risk": {
			{ID: "customer", Label: "Customer", DataType: DataTypeString},
			{ID: "plan", Label: "Plan", DataType: DataTypeCategory},
			{ID: "mrr", Label: "MRR", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "usage_change", Label: "Usage Change", DataType: DataTypeNumber, IsTrend: true, IsPositive: true},
			{ID: "risk_level", Label: "Risk Level", DataType: DataTypeCategory},
			{ID: "last_active", Label: "Last Active", DataType: DataTypeDate},
		},
		"failed-payments": {
			{ID: "customer", Label: "Customer", DataType: DataTypeString},
			{ID: "amount", Label: "Amount", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "failure_reason", Label: "Failure Reason", DataType: DataTypeCategory},
			{ID: "attempts", Label: "Attempts", DataType: DataTypeNumber, IsNumber: true},
			{ID: "failed_at", Label: "Failed At", DataType: DataTypeDate},
		},
		"upcoming-renewals": {
			{ID: "customer", Label: "Customer", DataType: DataTypeString},
			{ID: "plan", Label: "Plan", DataType: DataTypeCategory},
			{ID: "amount", Label: "Renewal Amount", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "seats", Label: "Seats", DataType: DataTypeNumber, IsNumber: true},
			{ID: "renewal_date", Label: "Renewal Date", DataType: DataTypeDate},
		},
		"usage-overages": {
			{ID: "customer", Label: "Customer", DataType: DataTypeString},
			{ID: "meter", Label: "Meter", DataType: DataTypeCategory},
			{ID: "overage_units", Label: "Overage Units", DataType: DataTypeNumber, IsNumber: true},
			{ID: "unit_rate", Label: "Unit Rate", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "overage_amount", Label: "Overage Amount", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "period_end", Label: "Period End", DataType: DataTypeDate},
		},
		"revenue-by-plan": {
			{ID: "plan", Label: "Plan", DataType: DataTypeCategory},
			{ID: "customers", Label: "Customers", DataType: DataTypeNumber, IsNumber: true},
			{ID: "revenue", Label: "Revenue", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "growth", Label: "Growth", DataType: DataTypeNumber, IsTrend: true, IsPositive: true},
			{ID: "month", Label: "Month", DataType: DataTypeDate},
		},
	}
}

func builtinMetricSchemas() map[string][]ColumnDefinition {
	return map[string][]ColumnDefinition{
		"mrr": {
			{ID: "date", Label: "Date", DataType: DataTypeDate},
			{ID: "customer", Label: "Customer", DataType: DataTypeString},
			{ID: "plan", Label: "Plan", DataType: DataTypeCategory},
			{ID: "movement", Label: "Movement", DataType: DataTypeCategory},
			{ID: "amount", Label: "Amount", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "change", Label: "Change", DataType: DataTypeNumber, IsTrend: true, IsPositive: true},
		},
		"active-subscribers": {
			{ID: "date", Label: "Date", DataType: DataTypeDate},
			{ID: "customer", Label: "Customer", DataType: DataTypeString},
			{ID: "plan", Label: "Plan", DataType: DataTypeCategory},
			{ID: "seats", Label: "Seats", DataType: DataTypeNumber, IsNumber: true},
		},
		"churn-rate": {
			{ID: "date", Label: "Date", DataType: DataTypeDate},
			{ID: "customer", Label: "Customer", DataType: DataTypeString},
			{ID: "reason", Label: "Churn Reason", DataType: DataTypeCategory},
			{ID: "lost_mrr", Label: "Lost MRR", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "change", Label: "Change", DataType: DataTypeNumber, IsTrend: true},
		},
		"arpu": {
			{ID: "date", Label: "Date", DataType: DataTypeDate},
			{ID: "plan", Label: "Plan", DataType: DataTypeCategory},
			{ID: "arpu", Label: "ARPU", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "change", Label: "Change", DataType: DataTypeNumber, IsTrend: true, IsPositive: true},
		},
		"net-revenue-retention": {
			{ID: "date", Label: "Date", DataType: DataTypeDate},
			{ID: "cohort", Label: "Cohort", DataType: DataTypeCategory},
			{ID: "starting_mrr", Label: "Starting MRR", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "ending_mrr", Label: "Ending MRR", DataType: DataTypeNumber, IsCurrency: true},
			{ID: "retention", Label: "Retention", DataType: DataTypeNumber, IsTrend: true, IsPositive: true},
		},
	}
}
