package aggregator

import (
	"math"
	"testing"
	"time"

	"pi-sensors/internal/models"
)

var base = time.Date(2026, 2, 21, 14, 0, 0, 0, time.UTC)

func reading(i int, temp, humi float64) models.Reading {
	return models.Reading{
		SensorID:    "sensor-1",
		Timestamp:   base.Add(time.Duration(i) * time.Second),
		Temperature: models.Float(temp),
		Humidity:    models.Float(humi),
	}
}

func TestWindowKeepsLatest(t *testing.T) {
	sa := NewSensorAggregator(5, ChangeThresholds{})
	for i := 0; i < 7; i++ {
		sa.Update(reading(i, float64(30+i), 50))
	}

	hist := sa.History(models.FieldTemperature)
	if len(hist) != 5 {
		t.Fatalf("expected 5 points, got %d", len(hist))
	}
	if hist[0].Value != 32 || hist[4].Value != 36 {
		t.Errorf("window = %v", hist)
	}
	if !hist[4].Time.Equal(base.Add(6 * time.Second)) {
		t.Errorf("last time = %v", hist[4].Time)
	}

	st := sa.Stats()[models.FieldTemperature]
	if st.Count != 5 || st.Min != 32 || st.Max != 36 || st.Avg != 34 || st.Last != 36 {
		t.Errorf("stats = %+v", st)
	}
	if _, ok := sa.Stats()[models.FieldPressure]; ok {
		t.Error("pressure was never reported")
	}
	if sa.History(models.FieldCompass) != nil {
		t.Error("compass history should be nil")
	}
}

func TestSignificantChange(t *testing.T) {
	sa := NewSensorAggregator(10, ChangeThresholds{TemperatureDelta: 0.5, HumidityDelta: 2})
	var notified []Change
	sa.SetChangeCallback(func(c Change) { notified = append(notified, c) })

	if got := sa.Update(reading(0, 21.0, 45)); len(got) != 0 {
		t.Errorf("first reading produced %v", got)
	}
	if got := sa.Update(reading(1, 21.3, 46)); len(got) != 0 {
		t.Errorf("small change produced %v", got)
	}
	got := sa.Update(reading(2, 22.0, 49))
	if len(got) != 2 {
		t.Fatalf("changes = %+v, want temperature and humidity", got)
	}
	if got[0].Field != models.FieldTemperature || got[0].Previous != 21.3 || got[0].Current != 22.0 {
		t.Errorf("temperature change = %+v", got[0])
	}
	if got[1].Field != models.FieldHumidity || got[1].Delta != 3 {
		t.Errorf("humidity change = %+v", got[1])
	}
	if len(notified) != 2 {
		t.Errorf("callback saw %d changes, want 2", len(notified))
	}
}

func TestChangeRateLimited(t *testing.T) {
	sa := NewSensorAggregator(10, ChangeThresholds{TemperatureDelta: 1, MinInterval: 5 * time.Second})

	sa.Update(reading(0, 20, 50))
	if got := sa.Update(reading(1, 22, 50)); len(got) != 1 {
		t.Fatalf("changes = %v, want 1", got)
	}
	if got := sa.Update(reading(2, 24, 50)); len(got) != 0 {
		t.Errorf("change within MinInterval was not limited: %v", got)
	}
	if got := sa.Update(reading(7, 26, 50)); len(got) != 1 {
		t.Errorf("change after MinInterval = %v, want 1", got)
	}
}

func TestAbsentFieldsSkipped(t *testing.T) {
	sa := NewSensorAggregator(3, ChangeThresholds{TemperatureDelta: 0.1})
	sa.Update(reading(0, 20, 50))
	sa.Update(models.Reading{SensorID: "sensor-1", Timestamp: base.Add(time.Second)})

	if n := len(sa.History(models.FieldTemperature)); n != 1 {
		t.Errorf("temperature points = %d, want 1", n)
	}
}

func TestCompassAverageWraps(t *testing.T) {
	tests := []struct {
		name     string
		headings []float64
		want     float64
	}{
		{"across north", []float64{359, 1}, 0},
		{"plain", []float64{10, 20}, 15},
		{"west", []float64{260, 280}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sa := NewSensorAggregator(5, ChangeThresholds{})
			for i, h := range tt.headings {
				sa.Update(models.Reading{SensorID: "sensor-1", Timestamp: base.Add(time.Duration(i) * time.Second), Compass: models.Float(h)})
			}
			avg := float64(sa.Stats()[models.FieldCompass].Avg)
			if diff := math.Abs(avg - tt.want); diff > 1e-6 {
				t.Errorf("avg = %v, want %v", avg, tt.want)
			}
		})
	}

	sa := NewSensorAggregator(5, ChangeThresholds{})
	sa.Update(reading(0, 359, 50))
	sa.Update(reading(1, 1, 50))
	if avg := sa.Stats()[models.FieldTemperature].Avg; avg != 180 {
		t.Errorf("temperature avg = %v, want arithmetic 180", avg)
	}
}
