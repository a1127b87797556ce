package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		if d := Distance(8.4799, 4.5418, 8.4799, 4.5418); d != 0 {
			t.Fatalf("expected 0, got %f", d)
		}
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		// 纬度 1 度约 111.2km
		d := Distance(0, 0, 1, 0)
		if math.Abs(d-111195) > 200 {
			t.Fatalf("expected ~111195m, got %f", d)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a := Distance(8.4799, 4.5418, 8.4900, 4.5500)
		b := Distance(8.4900, 4.5500, 8.4799, 4.5418)
		if math.Abs(a-b) > 1e-9 {
			t.Fatalf("distance not symmetric: %f vs %f", a, b)
		}
	})

	t.Run("campus scale ordering", func(t *testing.T) {
		near := Distance(8.4799, 4.5418, 8.4844, 4.5418)
		far := Distance(8.4799, 4.5418, 8.4909, 4.5418)
		if near >= far {
			t.Fatalf("expected near (%f) < far (%f)", near, far)
		}
	})
}
