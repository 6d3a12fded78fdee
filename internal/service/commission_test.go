package service

import "testing"

func TestCalculateCommission(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
		price    float64
		want     float64
	}{
		{"rate above minimum", 100, 100, 10},
		{"small trade hits minimum", 10, 10, 5},
		{"exactly at minimum", 100, 50, 5},
		{"large trade", 1000, 200, 200},
		{"zero quantity still charges minimum", 0, 100, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCommission(tt.quantity, tt.price)
			if got != tt.want {
				t.Errorf("CalculateCommission(%v, %v) = %v, want %v", tt.quantity, tt.price, got, tt.want)
			}
		})
	}
}
