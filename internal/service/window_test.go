package service

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParseDailyWindow(t *testing.T) {
	tests := []struct {
		name      string
		schedule  string
		wantStart int
		wantEnd   int
		wantErr   bool
	}{
		{"standard window", "daily 09:30-15:00", 9*60 + 30, 15 * 60, false},
		{"full day", "daily 00:00-23:59", 0, 23*60 + 59, false},
		{"extra whitespace", "  daily 09:30-15:00  ", 9*60 + 30, 15 * 60, false},
		{"empty", "", 0, 0, true},
		{"missing prefix", "09:30-15:00", 0, 0, true},
		{"not a range", "daily 09:30", 0, 0, true},
		{"bad hour", "daily 25:00-26:00", 0, 0, true},
		{"bad minute", "daily 09:61-15:00", 0, 0, true},
		{"ends before start", "daily 15:00-09:30", 0, 0, true},
		{"garbage", "daily nonsense", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ParseDailyWindow(tt.schedule)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDailyWindow(%q) expected error, got start=%d end=%d", tt.schedule, start, end)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDailyWindow(%q) unexpected error: %v", tt.schedule, err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("ParseDailyWindow(%q) = (%d, %d), want (%d, %d)", tt.schedule, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTradingWindowGateAdmit(t *testing.T) {
	location, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatal(err)
	}
	gate := NewTradingWindowGate(location, zap.NewNop())

	at := func(hour, minute int) time.Time {
		return time.Date(2026, 8, 28, hour, minute, 30, 0, location)
	}

	tests := []struct {
		name     string
		schedule string
		now      time.Time
		want     bool
	}{
		{"one minute before open", "daily 09:30-15:00", at(9, 29), false},
		{"exactly at open", "daily 09:30-15:00", at(9, 30), true},
		{"inside window", "daily 09:30-15:00", at(11, 0), true},
		{"exactly at close", "daily 09:30-15:00", at(15, 0), true},
		{"one minute after close", "daily 09:30-15:00", at(15, 1), false},
		{"malformed descriptor denies", "daily whenever", at(11, 0), false},
		{"empty descriptor denies", "", at(11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Admit(tt.schedule, tt.now); got != tt.want {
				t.Errorf("Admit(%q, %v) = %v, want %v", tt.schedule, tt.now, got, tt.want)
			}
		})
	}
}

func TestTradingWindowGateUsesConfiguredLocation(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatal(err)
	}
	gate := NewTradingWindowGate(shanghai, zap.NewNop())

	// 02:00 UTC 是上海时间 10:00，应当在时段内
	now := time.Date(2026, 8, 28, 2, 0, 0, 0, time.UTC)
	if !gate.Admit("daily 09:30-15:00", now) {
		t.Error("expected 02:00 UTC to be admitted as 10:00 Asia/Shanghai")
	}

	// 10:00 UTC 是上海时间 18:00，应当被拒绝
	now = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if gate.Admit("daily 09:30-15:00", now) {
		t.Error("expected 10:00 UTC to be denied as 18:00 Asia/Shanghai")
	}
}
