package logic

import (
	"math"
	"testing"
)

func TestConfigKeysWireOrder(t *testing.T) {
	want := []string{
		"temp_offset", "temp_min", "temp_max",
		"umid_offset", "umid_min", "umid_max",
		"press_offset", "press_min", "press_max",
		"alt_offset", "alt_min", "alt_max",
	}
	keys := ConfigKeys()
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range keys {
		if k.String() != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], k)
		}
	}
}

func TestParseConfigKeyRoundTrip(t *testing.T) {
	for _, k := range ConfigKeys() {
		got, ok := ParseConfigKey(k.String())
		if !ok {
			t.Errorf("%s: not recognised", k)
			continue
		}
		if got != k {
			t.Errorf("%s: parsed as %+v", k, got)
		}
	}
}

func TestParseConfigKeyRejects(t *testing.T) {
	for _, s := range []string{"", "temp", "TEMP_MIN", "temp_Min", "temp_avg", "wind_min", "tempmin", "temp_min_x"} {
		if _, ok := ParseConfigKey(s); ok {
			t.Errorf("%q: expected not recognised", s)
		}
	}
}

func TestReadingKeys(t *testing.T) {
	want := map[Metric]string{
		Temperature: "temperatura",
		Humidity:    "umidade",
		Pressure:    "pressao",
		Altitude:    "altitude",
	}
	for m, w := range want {
		if m.ReadingKey() != w {
			t.Errorf("%s: expected %s, got %s", m, w, m.ReadingKey())
		}
	}
}

func TestAltitudeAtSeaLevel(t *testing.T) {
	if got := BarometricAltitude(SeaLevelPressurePa); math.Abs(got) > 1e-9 {
		t.Errorf("expected 0 m at sea-level pressure, got %v", got)
	}
}

func TestAltitudeDecreasesWithPressure(t *testing.T) {
	// ~90 kPa is roughly 990 m
	got := BarometricAltitude(90000)
	if got < 950 || got > 1030 {
		t.Errorf("expected ~990 m at 90 kPa, got %v", got)
	}
	if BarometricAltitude(80000) <= got {
		t.Error("lower pressure should give higher altitude")
	}
}

func TestRawFromEnvironment(t *testing.T) {
	raw := RawFromEnvironment(21.5, 64, 101325)
	if raw[Temperature] != 21.5 {
		t.Errorf("temperature: got %v", raw[Temperature])
	}
	if raw[Humidity] != 64 {
		t.Errorf("humidity: got %v", raw[Humidity])
	}
	if raw[Pressure] != 101.325 {
		t.Errorf("pressure: expected 101.325 kPa, got %v", raw[Pressure])
	}
	if math.Abs(raw[Altitude]) > 1e-9 {
		t.Errorf("altitude: expected 0, got %v", raw[Altitude])
	}
}
