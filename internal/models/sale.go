package models

import (
	"encoding/json"
	"math"
	"time"
)

// Canonical field names. These are the column names of a normalized table.
const (
	FieldDate               = "date"
	FieldDocumentID         = "document_id"
	FieldCustomerCode       = "customer_code"
	FieldCustomerName       = "customer_name"
	FieldSalesperson        = "salesperson"
	FieldItemCode           = "item_code"
	FieldProductDescription = "product_description"
	FieldQuantity           = "quantity"
	FieldUnitPrice          = "unit_price"
	FieldLineTotal          = "line_total"
)

// Derived field names.
const (
	FieldYear          = "year"
	FieldMonthBucket   = "month_bucket"
	FieldQuarterBucket = "quarter_bucket"
	FieldAvgUnitValue  = "avg_unit_value"
)

// SaleLine is one normalized sales line item. Date is always set and truncated
// to the calendar day in UTC. The derived fields are zero until derivation runs.
type SaleLine struct {
	Date               time.Time `json:"date"`
	DocumentID         string    `json:"document_id"`
	CustomerCode       string    `json:"customer_code,omitempty"`
	CustomerName       string    `json:"customer_name"`
	Salesperson        string    `json:"salesperson"`
	ItemCode           string    `json:"item_code,omitempty"`
	ProductDescription string    `json:"product_description"`
	Quantity           float64   `json:"quantity"`
	UnitPrice          float64   `json:"unit_price"`
	LineTotal          float64   `json:"line_total"`

	Year          int    `json:"year"`
	MonthBucket   string `json:"month_bucket"`
	QuarterBucket string `json:"quarter_bucket"`
	AvgUnitValue  Ratio  `json:"avg_unit_value"`
}

// Ratio is a quotient that may be undefined. An undefined ratio marshals to
// JSON null and must be skipped by any averaging.
type Ratio struct {
	Value float64
	Valid bool
}

// NewRatio returns num/den when den > 0 and the result is finite.
func NewRatio(num, den float64) Ratio {
	if den <= 0 {
		return Ratio{}
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Ratio{}
	}
	return Ratio{Value: v, Valid: true}
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	if err := json.Unmarshal(data, &r.Value); err != nil {
		return err
	}
	r.Valid = true
	return nil
}

// GroupKey selects the dimension used by group aggregation.
type GroupKey string

const (
	GroupByMonth       GroupKey = "month"
	GroupByQuarter     GroupKey = "quarter"
	GroupByCustomer    GroupKey = "customer"
	GroupBySalesperson GroupKey = "salesperson"
	GroupByProduct     GroupKey = "product"
)

// GroupKeys lists the supported grouping keys in UI order.
var GroupKeys = []GroupKey{GroupByMonth, GroupByQuarter, GroupByCustomer, GroupBySalesperson, GroupByProduct}

// Chronological reports whether groups of this key sort by key rather than by value.
func (k GroupKey) Chronological() bool {
	return k == GroupByMonth || k == GroupByQuarter
}

func (k GroupKey) Valid() bool {
	for _, g := range GroupKeys {
		if g == k {
			return true
		}
	}
	return false
}

// GroupAggregate holds the totals of one group.
type GroupAggregate struct {
	Key          string  `json:"key"`
	LineTotal    float64 `json:"line_total_sum"`
	Quantity     float64 `json:"quantity_sum"`
	Documents    int     `json:"documents"`
	Customers    int     `json:"customers,omitempty"`
	Records      int     `json:"records"`
	AvgUnitValue Ratio   `json:"avg_unit_value"`
}

// Summary holds the headline figures of a view.
type Summary struct {
	LineTotal    float64 `json:"line_total_sum"`
	Quantity     float64 `json:"quantity_sum"`
	AvgUnitValue Ratio   `json:"avg_unit_value"`
	Documents    int     `json:"documents"`
	Customers    int     `json:"customers"`
	Records      int     `json:"records"`
}

// HistogramBin counts unit prices falling in [Lower, Upper). The last bin is closed.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// FilterOptions describes the values a filter UI can offer for a base table.
type FilterOptions struct {
	MinDate     time.Time `json:"min_date"`
	MaxDate     time.Time `json:"max_date"`
	Customers   []string  `json:"customers"`
	Salespeople []string  `json:"salespeople"`
}
