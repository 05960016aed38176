package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/schema"
)

const testCSV = "Fecha;Número interno;Cliente;Vendedor;Descripcion;Cantidad;Precio;Venta\n" +
	"05/01/2024;100;Acme;Ana;Widget Azul;2;50;100\n" +
	"20/01/2024;100;Acme;Ana;Gadget;1;100;100\n" +
	"03/02/2024;101;Beta;Luis;Widget Rojo;4;25;100\n" +
	"15/04/2024;102;Gamma;Ana;Servicio;0;0;50\n"

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ventas.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testLines() []models.SaleLine {
	return []models.SaleLine{
		{Date: day(2024, 1, 5), DocumentID: "100", CustomerName: "Acme", Salesperson: "Ana", ProductDescription: "Widget Azul", Quantity: 2, UnitPrice: 50, LineTotal: 100},
		{Date: day(2024, 1, 20), DocumentID: "100", CustomerName: "Acme", Salesperson: "Ana", ProductDescription: "Gadget", Quantity: 1, UnitPrice: 100, LineTotal: 100},
		{Date: day(2024, 2, 3), DocumentID: "101", CustomerName: "Beta", Salesperson: "Luis", ProductDescription: "Widget Rojo", Quantity: 4, UnitPrice: 25, LineTotal: 100},
		{Date: day(2024, 4, 15), DocumentID: "102", CustomerName: "Gamma", Salesperson: "Ana", ProductDescription: "Servicio", LineTotal: 50},
	}
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics(nil)
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.loader == nil {
		t.Error("loader should be initialized")
	}
	if a.Dataset().Len() != 0 {
		t.Errorf("new service should be empty, got %d records", a.Dataset().Len())
	}

	summary, err := a.Summary(sales.FilterSpec{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Records != 0 || summary.AvgUnitValue.Valid {
		t.Errorf("empty summary = %+v", summary)
	}
}

func TestAnalytics_SetData(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testLines())

	ds := a.Dataset()
	if ds.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", ds.Len())
	}
	if ds.Lines[0].MonthBucket != "2024-01" {
		t.Errorf("lines should be derived, got month %q", ds.Lines[0].MonthBucket)
	}

	opts := a.Options()
	if len(opts.Customers) != 3 || opts.Customers[0] != "Acme" {
		t.Errorf("Customers = %v", opts.Customers)
	}
	if !opts.MinDate.Equal(day(2024, 1, 5)) || !opts.MaxDate.Equal(day(2024, 4, 15)) {
		t.Errorf("date bounds = %v..%v", opts.MinDate, opts.MaxDate)
	}
}

func TestAnalytics_LoadFromFile(t *testing.T) {
	a := NewAnalytics(nil)
	path := createTempCSV(t, testCSV)

	if err := a.LoadFromFile(context.Background(), path); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	summary, err := a.Summary(sales.FilterSpec{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.LineTotal != 350 {
		t.Errorf("LineTotal = %g, want 350", summary.LineTotal)
	}
	if summary.Documents != 3 {
		t.Errorf("Documents = %d, want 3", summary.Documents)
	}

	stats := a.Stats()
	if stats["record_count"] != 4 {
		t.Errorf("record_count = %v", stats["record_count"])
	}
	if stats["source_file"] != path {
		t.Errorf("source_file = %v", stats["source_file"])
	}
}

func TestAnalytics_LoadFailureKeepsDataset(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testLines())
	before := a.Dataset()

	path := createTempCSV(t, "Cliente;Venta\nAcme;1\n")
	err := a.LoadFromFile(context.Background(), path)

	var resErr *schema.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if a.Dataset() != before {
		t.Error("failed load must not replace the dataset")
	}
}

func TestAnalytics_Reload(t *testing.T) {
	a := NewAnalytics(nil)
	if err := a.Reload(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Fatalf("Reload() before load error = %v, want ErrNoSource", err)
	}

	path := createTempCSV(t, testCSV)
	if err := a.LoadFromFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	first := a.Dataset()

	extra := testCSV + "01/05/2024;103;Delta;Luis;Widget Azul;1;10;10\n"
	if err := os.WriteFile(path, []byte(extra), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := a.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if a.Dataset().Len() != 5 {
		t.Errorf("reloaded Len() = %d, want 5", a.Dataset().Len())
	}
	if first.Len() != 4 {
		t.Error("previous dataset must not change")
	}
}

func TestAnalytics_Groups(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testLines())

	groups, err := a.Groups(sales.FilterSpec{Salespeople: []string{"Ana"}}, models.GroupByCustomer, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Key != "Acme" || groups[0].LineTotal != 200 || groups[0].Documents != 1 {
		t.Errorf("first group = %+v", groups[0])
	}

	if _, err := a.Groups(sales.FilterSpec{}, "region", 0); !errors.Is(err, sales.ErrUnknownGroupKey) {
		t.Errorf("unknown key error = %v", err)
	}

	_, err = a.Groups(sales.FilterSpec{From: day(2024, 2, 1)}, models.GroupByMonth, 0)
	if !errors.Is(err, sales.ErrIncompleteDateRange) {
		t.Errorf("incomplete range error = %v", err)
	}
}

func TestAnalytics_Snapshot(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testLines())

	snap, err := a.Snapshot(context.Background(), sales.FilterSpec{}, SnapshotOptions{
		GroupBy:     models.GroupByProduct,
		TopN:        2,
		DetailLimit: 3,
	})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap.Summary.LineTotal != 350 {
		t.Errorf("Summary.LineTotal = %g", snap.Summary.LineTotal)
	}
	if len(snap.Groups) != 2 {
		t.Errorf("Groups limited to TopN, got %d", len(snap.Groups))
	}
	if len(snap.Trend) != 3 || snap.Trend[0].Key != "2024-01" || snap.Trend[2].Key != "2024-04" {
		t.Errorf("Trend = %+v", snap.Trend)
	}
	if len(snap.TopCustomers) != 2 || snap.TopCustomers[0].Key != "Acme" {
		t.Errorf("TopCustomers = %+v", snap.TopCustomers)
	}
	if len(snap.Records) != 3 || snap.TotalRecords != 4 {
		t.Errorf("Records = %d of %d", len(snap.Records), snap.TotalRecords)
	}
	if len(snap.Histogram) != defaultHistogramBins {
		t.Errorf("Histogram bins = %d", len(snap.Histogram))
	}
}

func TestAnalytics_SnapshotChronologicalGroupsUnlimited(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testLines())

	snap, err := a.Snapshot(context.Background(), sales.FilterSpec{}, SnapshotOptions{GroupBy: models.GroupByMonth, TopN: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Groups) != 3 {
		t.Errorf("month groups = %d, want all 3", len(snap.Groups))
	}
}

func TestAnalytics_SnapshotErrors(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testLines())

	if _, err := a.Snapshot(context.Background(), sales.FilterSpec{}, SnapshotOptions{GroupBy: "region"}); !errors.Is(err, sales.ErrUnknownGroupKey) {
		t.Errorf("unknown key error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Snapshot(ctx, sales.FilterSpec{}, SnapshotOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled snapshot error = %v", err)
	}
}

func TestAnalytics_ConcurrentReadsDuringSwap(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testLines())

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for range 50 {
				if i%4 == 0 {
					a.SetData(testLines())
					continue
				}
				summary, err := a.Summary(sales.FilterSpec{})
				if err != nil {
					t.Error(err)
					return
				}
				if summary.LineTotal != 350 {
					t.Errorf("LineTotal = %g during swap", summary.LineTotal)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
