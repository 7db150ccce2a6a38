package timeseries

// FilterSpec declares how one derived attribute can be filtered by a query
// or discovery layer: its value type, display name, and the comparison
// operators it supports. Static declaration, no runtime logic.
type FilterSpec struct {
	Type       string   `json:"type"`
	Display    string   `json:"display"`
	Operations []string `json:"operations"`
}

// AcceptedFilters lists the filterable derived attributes of a time series.
func AcceptedFilters() map[string]FilterSpec {
	return map[string]FilterSpec{
		"nr_dimensions": {
			Type:       "int",
			Display:    "No of Dimensions",
			Operations: []string{"==", "<", ">"},
		},
		"sample_period": {
			Type:       "float",
			Display:    "Sample Period",
			Operations: []string{"==", "<", ">"},
		},
		"sample_rate": {
			Type:       "float",
			Display:    "Sample Rate",
			Operations: []string{"==", "<", ">"},
		},
		"title": {
			Type:       "string",
			Display:    "Title",
			Operations: []string{"==", "!=", "like"},
		},
	}
}
