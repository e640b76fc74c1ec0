package model

import (
	"net/url"
	"strconv"
)

// Periodo selects events inside, outside, or regardless of the program window.
type Periodo string

const (
	PeriodoDentro Periodo = "dentro"
	PeriodoFora   Periodo = "fora"
	PeriodoAmbos  Periodo = "ambos"
)

// Valid reports whether the period is one the backend understands.
func (p Periodo) Valid() bool {
	switch p {
	case PeriodoDentro, PeriodoFora, PeriodoAmbos:
		return true
	}
	return false
}

// DefaultJanela is the default observation window, in months.
const DefaultJanela = 24

// ResultsQuery carries the dashboard filters.
type ResultsQuery struct {
	Periodo                 Periodo
	Grupos                  []string
	AgrupamentoAssistencial []string
	Janela                  int
	MomentoZero             bool
}

// DefaultResultsQuery returns the filters the dashboard opens with.
func DefaultResultsQuery() ResultsQuery {
	return ResultsQuery{Periodo: PeriodoDentro, Janela: DefaultJanela}
}

// Values encodes the query string; multi-selects repeat their key.
func (q ResultsQuery) Values() url.Values {
	v := url.Values{}
	periodo := q.Periodo
	if periodo == "" {
		periodo = PeriodoDentro
	}
	janela := q.Janela
	if janela <= 0 {
		janela = DefaultJanela
	}
	v.Set("periodo", string(periodo))
	v.Set("momentoZero", strconv.FormatBool(q.MomentoZero))
	v.Set("janela", strconv.Itoa(janela))
	for _, g := range q.Grupos {
		v.Add("grupos", g)
	}
	for _, a := range q.AgrupamentoAssistencial {
		v.Add("agrupamento_assistencial", a)
	}
	return v
}

// KPIs are the headline numbers of a dashboard.
type KPIs struct {
	Lives           int     `json:"lives"`
	LivesWithEvents int     `json:"lives_with_events"`
	TotalCost       float64 `json:"total_cost"`
	PMPM            float64 `json:"pmpm"`
	Prediction      float64 `json:"prediction"`
}

// Series is an x/y chart series.
type Series struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Trend is the linear cost trend after program entry.
type Trend struct {
	X          []float64 `json:"x"`
	Y          []float64 `json:"y"`
	TrendY     []float64 `json:"trend_y"`
	Slope      float64   `json:"slope"`
	Intercept  float64   `json:"intercept"`
	Prediction float64   `json:"prediction"`
}

// Charts groups the chart payloads.
type Charts struct {
	Trend    *Trend `json:"trend"`
	Timeline Series `json:"timeline"`
}

// Results is the dashboard payload of an analysed round.
type Results struct {
	Meta struct {
		RefDate string `json:"ref_date"`
	} `json:"meta"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	RawData     []Row  `json:"raw_data"`
	Comparative []Row  `json:"comparative"`
	Charts      Charts `json:"charts"`
	KPIs        KPIs   `json:"kpis"`
}

// Ready reports whether the backend has finished processing the round.
func (r Results) Ready() bool {
	return r.Status != "processing"
}

// FilterOptions lists the values available to the dashboard multi-selects.
type FilterOptions struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Options struct {
		Grupos                  []string `json:"grupos"`
		AgrupamentoAssistencial []string `json:"agrupamento_assistencial"`
	} `json:"options"`
}
