package core

// MonthlyAmount is the total of one series for a calendar month.
type MonthlyAmount struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"` // 1-12
	Amount float64 `json:"amount"`
}

func (m MonthlyAmount) Period() PeriodKey {
	return PeriodKey{Year: m.Year, Month: m.Month}
}

// AlignedSeriesPair is the chart model handed to the renderer. All slices
// share the same length and order.
type AlignedSeriesPair struct {
	Periods        []PeriodKey `json:"periods"`
	Labels         []string    `json:"labels"`
	EarningValues  []float64   `json:"earning_values"`
	SpendingValues []float64   `json:"spending_values"`
	AxisMax        float64     `json:"axis_max"`
}

// EmptyChart is the state shown when there is nothing valid to plot.
func EmptyChart() AlignedSeriesPair {
	return AlignedSeriesPair{
		Periods:        []PeriodKey{},
		Labels:         []string{},
		EarningValues:  []float64{},
		SpendingValues: []float64{},
	}
}

// Len returns the number of plotted periods.
func (a AlignedSeriesPair) Len() int {
	return len(a.Periods)
}
