package breach

import (
	"testing"

	"tourist-tracker/internal/geo"
	"tourist-tracker/internal/models"
)

func square(minLng, minLat, maxLng, maxLat float64) [][2]float64 {
	return [][2]float64{
		{minLng, minLat},
		{maxLng, minLat},
		{maxLng, maxLat},
		{minLng, maxLat},
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	z1 := models.Zone{Id: "z1", Name: "Z1", Type: models.ZoneTypeYellow, Coordinates: square(0, 0, 10, 10)}
	z2 := models.Zone{Id: "z2", Name: "Z2", Type: models.ZoneTypeRed, Coordinates: square(0, 0, 10, 10)}
	p := geo.Point{Lng: 5, Lat: 5}

	got := Classify(p, []models.Zone{z1, z2})
	if got == nil || got.Id != "z1" {
		t.Fatalf("Classify([z1, z2]) matched %v, want z1", got)
	}

	got = Classify(p, []models.Zone{z2, z1})
	if got == nil || got.Id != "z2" {
		t.Fatalf("Classify([z2, z1]) matched %v, want z2", got)
	}
}

func TestClassifyUngoverned(t *testing.T) {
	z := models.Zone{Id: "z1", Type: models.ZoneTypeRed, Coordinates: square(0, 0, 10, 10)}

	if got := Classify(geo.Point{Lng: 50, Lat: 50}, []models.Zone{z}); got != nil {
		t.Fatalf("expected no match outside all zones, got %s", got.Id)
	}

	if got := Classify(geo.Point{Lng: 5, Lat: 5}, nil); got != nil {
		t.Fatalf("expected no match with empty zone set, got %s", got.Id)
	}
}

func TestSeverityFor(t *testing.T) {
	if got := SeverityFor(models.ZoneTypeRed); got != models.SeverityHigh {
		t.Fatalf("red severity = %s, want %s", got, models.SeverityHigh)
	}
	if got := SeverityFor(models.ZoneTypeYellow); got != models.SeverityMedium {
		t.Fatalf("yellow severity = %s, want %s", got, models.SeverityMedium)
	}
}

func TestIsBreaching(t *testing.T) {
	if IsBreaching(models.ZoneTypeGreen) {
		t.Fatalf("green zones must not count as breaches")
	}
	if !IsBreaching(models.ZoneTypeYellow) || !IsBreaching(models.ZoneTypeRed) {
		t.Fatalf("yellow and red zones must count as breaches")
	}
}
