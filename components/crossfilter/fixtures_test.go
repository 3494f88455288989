package crossfilter

func churnColumns() []ColumnDefinition {
	return []ColumnDefinition{
		{ID: "customer", Label: "Customer", DataType: DataTypeString},
		{ID: "plan", Label: "Plan", DataType: DataTypeCategory},
		{ID: "mrr", Label: "MRR", DataType: DataTypeNumber, IsCurrency: true},
		{ID: "last_active", Label: "Last Active", DataType: DataTypeDate},
	}
}

// churnRows: mrr splits into "$100.00 - $250.00" (Acme, Beta) and
// "$250.00 - $400.00" (Cobalt, Delta).
func churnRows() Rows {
	return RowsFromMaps([]map[string]any{
		{"customer": "Acme", "plan": "Pro", "mrr": 100, "last_active": "2024-03-01"},
		{"customer": "Beta", "plan": "Pro", "mrr": "$200.00", "last_active": "2024-03-01T09:30:00Z"},
		{"customer": "Cobalt", "plan": "Basic", "mrr": 300, "last_active": "2024-03-02"},
		{"customer": "Delta", "plan": "Enterprise", "mrr": 400, "last_active": "2024-03-03"},
	})
}

func columnByID(cols []ColumnDefinition, id string) ColumnDefinition {
	for _, col := range cols {
		if col.ID == id {
			return col
		}
	}
	return ColumnDefinition{}
}
