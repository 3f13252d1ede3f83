package series_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/grexie/derivatives/pkg/series"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func hourlyTimes(n int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return times
}

func TestNewLengthMismatch(t *testing.T) {
	_, err := series.New("metric", hourlyTimes(3), []float64{1, 2})
	if !errors.Is(err, series.ErrIndexMisalignment) {
		t.Fatalf("expected index misalignment, got %v", err)
	}
}

func TestNewRejectsUnsortedTimestamps(t *testing.T) {
	times := hourlyTimes(3)
	times[1], times[2] = times[2], times[1]
	if _, err := series.New("metric", times, []float64{1, 2, 3}); err == nil {
		t.Fatalf("expected error for descending timestamps")
	}

	times = hourlyTimes(3)
	times[2] = times[1]
	if _, err := series.New("metric", times, []float64{1, 2, 3}); err == nil {
		t.Fatalf("expected error for duplicate timestamps")
	}
}

func TestDerive(t *testing.T) {
	s, err := series.New("price_usd", hourlyTimes(2), []float64{1, 2})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}
	d := s.Derive("_change_1", []float64{math.NaN(), 1})
	if d.Name != "price_usd_change_1" {
		t.Fatalf("unexpected name %q", d.Name)
	}
	if !d.SameIndex(s) {
		t.Fatalf("derived series lost the index")
	}
}

func TestMeanStd(t *testing.T) {
	s, err := series.New("metric", hourlyTimes(4), []float64{10, math.NaN(), 20, 30})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}
	if mean := s.Mean(); math.Abs(mean-20) > 1e-9 {
		t.Fatalf("mean: got %v, want 20", mean)
	}
	if std := s.Std(); math.Abs(std-10) > 1e-9 {
		t.Fatalf("std: got %v, want 10", std)
	}

	if mean := series.Empty("metric").Mean(); !math.IsNaN(mean) {
		t.Fatalf("mean of empty series: got %v, want absent", mean)
	}
}

func TestJoinMisalignment(t *testing.T) {
	a, err := series.New("a", hourlyTimes(3), []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}
	b, err := series.New("b", hourlyTimes(2), []float64{1, 2})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}

	if _, err := series.Join(a, b); !errors.Is(err, series.ErrIndexMisalignment) {
		t.Fatalf("expected index misalignment, got %v", err)
	}

	shifted := make([]time.Time, 3)
	for i := range shifted {
		shifted[i] = base.Add(time.Duration(i)*time.Hour + time.Minute)
	}
	c, err := series.New("c", shifted, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}
	if _, err := series.Join(a, c); !errors.Is(err, series.ErrIndexMisalignment) {
		t.Fatalf("expected index misalignment, got %v", err)
	}
}

func TestFrameMarshalJSON(t *testing.T) {
	a, err := series.New("a", hourlyTimes(2), []float64{1.5, math.NaN()})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}
	b, err := series.New("b", hourlyTimes(2), []float64{2, 3})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}

	frame, err := series.Join(a, b)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["datetime"] != "2024-01-01T00:00:00Z" {
		t.Fatalf("unexpected datetime %v", rows[0]["datetime"])
	}
	if rows[0]["a"] != 1.5 {
		t.Fatalf("unexpected value %v", rows[0]["a"])
	}
	if v, ok := rows[1]["a"]; !ok || v != nil {
		t.Fatalf("absent value should marshal to null, got %v", v)
	}
}

func TestFrameRender(t *testing.T) {
	a, err := series.New("a", hourlyTimes(3), []float64{1, math.NaN(), 3})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}
	frame, err := series.Join(a)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	var buf bytes.Buffer
	frame.Render(&buf, 2)
	out := buf.String()
	if !strings.Contains(out, "2024-01-01T02:00:00Z") {
		t.Fatalf("render missing last row: %s", out)
	}
	if strings.Contains(out, "2024-01-01T00:00:00Z") {
		t.Fatalf("render should only show the tail: %s", out)
	}
}
