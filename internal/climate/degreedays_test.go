package climate

import (
	"math"
	"math/rand"
	"testing"

	"climate-stats/internal/models"
)

const floatTolerance = 1e-9

func TestHeatingDegreeDays(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		base     float64
		truncate bool
		want     float64
	}{
		{
			name:     "cold day below base",
			temp:     280.0,
			base:     DefaultBaseTemperature,
			truncate: true,
			want:     11.483,
		},
		{
			name:     "warm day truncated to zero",
			temp:     300.0,
			base:     DefaultBaseTemperature,
			truncate: true,
			want:     0.0,
		},
		{
			name:     "warm day untruncated stays negative",
			temp:     300.0,
			base:     DefaultBaseTemperature,
			truncate: false,
			want:     -8.517,
		},
		{
			name:     "temperature equal to base",
			temp:     291.483,
			base:     291.483,
			truncate: true,
			want:     0.0,
		},
		{
			name:     "custom base temperature",
			temp:     290.0,
			base:     295.0,
			truncate: true,
			want:     5.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeatingDegreeDays(tt.temp, tt.base, tt.truncate)
			if math.Abs(got-tt.want) > floatTolerance {
				t.Errorf("HeatingDegreeDays(%v, %v, %v) = %v, want %v",
					tt.temp, tt.base, tt.truncate, got, tt.want)
			}
		})
	}
}

func TestCoolingDegreeDays(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		base     float64
		truncate bool
		want     float64
	}{
		{
			name:     "hot day above base",
			temp:     300.0,
			base:     290.0,
			truncate: true,
			want:     10.0,
		},
		{
			name:     "cold day truncated to zero",
			temp:     280.0,
			base:     290.0,
			truncate: true,
			want:     0.0,
		},
		{
			name:     "cold day untruncated stays negative",
			temp:     280.0,
			base:     290.0,
			truncate: false,
			want:     -10.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoolingDegreeDays(tt.temp, tt.base, tt.truncate)
			if math.Abs(got-tt.want) > floatTolerance {
				t.Errorf("CoolingDegreeDays(%v, %v, %v) = %v, want %v",
					tt.temp, tt.base, tt.truncate, got, tt.want)
			}
		})
	}
}

// TestDegreeDays_Antisymmetry checks that untruncated heating and cooling
// degree days are exact negations for random inputs.
func TestDegreeDays_Antisymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		temp := 150.0 + rng.Float64()*250.0
		base := 150.0 + rng.Float64()*250.0

		hdd := HeatingDegreeDays(temp, base, false)
		cdd := CoolingDegreeDays(temp, base, false)

		if hdd != -cdd {
			t.Fatalf("HeatingDegreeDays(%v, %v) = %v, CoolingDegreeDays = %v, want exact negation",
				temp, base, hdd, cdd)
		}
	}
}

// TestDegreeDays_TruncationFloor checks that truncated heating degree days
// equal max(0, base-T) for random inputs.
func TestDegreeDays_TruncationFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 1000; i++ {
		temp := 150.0 + rng.Float64()*250.0
		base := 150.0 + rng.Float64()*250.0

		got := HeatingDegreeDays(temp, base, true)

		want := base - temp
		if want < 0 {
			want = 0.0
		}

		if got != want {
			t.Fatalf("HeatingDegreeDays(%v, %v, true) = %v, want %v", temp, base, got, want)
		}
		if got < 0 {
			t.Fatalf("HeatingDegreeDays(%v, %v, true) = %v, want non-negative", temp, base, got)
		}
	}
}

func TestDegreeDayProfile(t *testing.T) {
	cold := 280.0
	hot := 300.0

	var profile models.MonthlyProfile
	profile[0] = &cold
	profile[6] = &hot

	heating, cooling := DegreeDayProfile(profile, 290.0)

	if heating[0] == nil || *heating[0] != 10.0 {
		t.Errorf("heating[0] = %v, want 10.0", heating[0])
	}
	if cooling[0] == nil || *cooling[0] != 0.0 {
		t.Errorf("cooling[0] = %v, want 0.0", cooling[0])
	}
	if heating[6] == nil || *heating[6] != 0.0 {
		t.Errorf("heating[6] = %v, want 0.0", heating[6])
	}
	if cooling[6] == nil || *cooling[6] != 10.0 {
		t.Errorf("cooling[6] = %v, want 10.0", cooling[6])
	}

	for _, m := range []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11} {
		if heating[m] != nil || cooling[m] != nil {
			t.Errorf("month %d should stay unset in both profiles", m)
		}
	}
}
