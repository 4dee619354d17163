package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_AddMonths(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2026-03-10", 1, "2026-04-10"},
		{"2026-01-31", 1, "2026-02-28"},
		{"2028-01-31", 1, "2028-02-29"},
		{"2026-08-31", 1, "2026-09-30"},
		{"2026-11-15", 2, "2027-01-15"},
		{"2026-05-31", 12, "2027-05-31"},
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			d, err := ParseDate(tt.start)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := d.AddMonths(tt.n).String(); got != tt.want {
				t.Errorf("%s + %d months: expected %s, got %s", tt.start, tt.n, tt.want, got)
			}
		})
	}
}

func TestDate_ChainedMonthsKeepClampedDay(t *testing.T) {
	d, _ := ParseDate("2026-01-31")
	d = d.AddMonths(1).AddMonths(1)
	if d.String() != "2026-03-28" {
		t.Errorf("expected 2026-03-28, got %s", d)
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2026, time.February, 28, 23, 59, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `"2026-02-28"` {
		t.Errorf("unexpected encoding %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("expected %s, got %s", d, back)
	}

	if err := json.Unmarshal([]byte(`"28/02/2026"`), &back); err == nil {
		t.Errorf("expected an error for a foreign layout")
	}
}

func TestDate_Scan(t *testing.T) {
	want := "2026-02-28"
	for _, src := range []interface{}{
		time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		"2026-02-28",
		[]byte("2026-02-28T00:00:00Z"),
	} {
		var d Date
		if err := d.Scan(src); err != nil {
			t.Fatalf("scan %T: unexpected error: %v", src, err)
		}
		if d.String() != want {
			t.Errorf("scan %T: expected %s, got %s", src, want, d)
		}
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Errorf("expected an error for an integer")
	}
}

func TestNewSchedulePage(t *testing.T) {
	p := NewSchedulePage(7, nil, 3, 5, 12)
	if p.Content == nil || len(p.Content) != 0 {
		t.Errorf("expected empty non-nil content")
	}
	if p.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", p.TotalPages)
	}

	if empty := NewSchedulePage(7, nil, 0, 12, 0); empty.TotalPages != 0 {
		t.Errorf("expected 0 pages, got %d", empty.TotalPages)
	}
}
