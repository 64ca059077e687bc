package classify

import (
	"testing"
	"time"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/google/go-cmp/cmp"
)

func TestFieldsGPS(t *testing.T) {
	tags := core.Tags{
		"latitude":        45.4642,
		"longitude":       9.19,
		"GPSLatitudeRef":  "N",
		"GPSLongitudeRef": "E",
	}
	want := []core.MetaField{{Label: "GPS Location", Value: "45.4642° N, 9.1900° E", Category: CatLocation, Risk: core.RiskHigh}}
	if diff := cmp.Diff(want, Fields(tags)); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsGPSOnEquator(t *testing.T) {
	got := Fields(core.Tags{"latitude": 0.0, "longitude": -0.5, "GPSLongitudeRef": "W"})
	if len(got) != 1 || got[0].Value != "0.0000° N, 0.5000° W" {
		t.Errorf("Fields = %+v", got)
	}
	if got := Fields(core.Tags{"latitude": 10.0}); len(got) != 0 {
		t.Errorf("latitude alone produced %+v", got)
	}
}

func TestFormatExposure(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.000847, "1/1180s"},
		{0.008, "1/125s"},
		{0.5, "1/2s"},
		{1, "1s"},
		{2, "2s"},
		{2.5, "2.5s"},
	}
	for _, tt := range tests {
		if got := FormatExposure(tt.in); got != tt.want {
			t.Errorf("FormatExposure(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFieldsFull(t *testing.T) {
	taken := time.Date(2023, 7, 14, 18, 30, 0, 0, time.UTC)
	tags := core.Tags{
		"DateTimeOriginal": taken,
		"CreateDate":       taken,
		"ModifyDate":       taken.Add(time.Hour),
		"Make":             "Acme",
		"Model":            "Cam 1",
		"Software":         "Editor 2.0",
		"Artist":           "Jane",
		"Author":           "ignored",
		"Copyright":        "© Jane",
		"ExposureTime":     2.0,
		"FNumber":          2.8,
		"ISO":              200,
		"FocalLength":      50.0,
		"ImageWidth":       4000,
		"ImageHeight":      3000,
		"ExifImageWidth":   10,
		"ExifImageHeight":  10,
		"ColorSpace":       1,
		"Orientation":      6,
	}
	want := []core.MetaField{
		{Label: "Date Taken", Value: "2023-07-14 18:30:00", Category: CatTime, Risk: core.RiskHigh},
		{Label: "Last Modified", Value: "2023-07-14 19:30:00", Category: CatTime, Risk: core.RiskMedium},
		{Label: "Camera/Device", Value: "Acme Cam 1", Category: CatDevice, Risk: core.RiskMedium},
		{Label: "Software", Value: "Editor 2.0", Category: CatDevice, Risk: core.RiskLow},
		{Label: "Author", Value: "Jane", Category: CatOther, Risk: core.RiskHigh},
		{Label: "Copyright", Value: "© Jane", Category: CatOther, Risk: core.RiskMedium},
		{Label: "Shutter Speed", Value: "2s", Category: CatCamera, Risk: core.RiskLow},
		{Label: "Aperture", Value: "f/2.8", Category: CatCamera, Risk: core.RiskLow},
		{Label: "ISO", Value: "200", Category: CatCamera, Risk: core.RiskLow},
		{Label: "Focal Length", Value: "50mm", Category: CatCamera, Risk: core.RiskLow},
		{Label: "Dimensions", Value: "4000 × 3000", Category: CatOther, Risk: core.RiskLow},
		{Label: "Color Space", Value: "sRGB", Category: CatOther, Risk: core.RiskLow},
		{Label: "Orientation", Value: "Rotated 90° CW", Category: CatOther, Risk: core.RiskLow},
	}
	if diff := cmp.Diff(want, Fields(tags)); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsFallbacks(t *testing.T) {
	tags := core.Tags{
		"CreateDate":      "2020:01:01 00:00:00",
		"ModifyDate":      "2020:01:01 00:00:00",
		"Model":           "Only Model",
		"Author":          "From XMP",
		"ExposureTime":    0,
		"FNumber":         0.0,
		"ImageWidth":      0,
		"ExifImageWidth":  640,
		"ExifImageHeight": 480,
		"ColorSpace":      65535,
		"Orientation":     9,
	}
	want := []core.MetaField{
		{Label: "Date Created", Value: "2020:01:01 00:00:00", Category: CatTime, Risk: core.RiskHigh},
		{Label: "Last Modified", Value: "2020:01:01 00:00:00", Category: CatTime, Risk: core.RiskMedium},
		{Label: "Camera/Device", Value: "Only Model", Category: CatDevice, Risk: core.RiskMedium},
		{Label: "Author", Value: "From XMP", Category: CatOther, Risk: core.RiskHigh},
		{Label: "Dimensions", Value: "640 × 480", Category: CatOther, Risk: core.RiskLow},
		{Label: "Color Space", Value: "65535", Category: CatOther, Risk: core.RiskLow},
		{Label: "Orientation", Value: "9", Category: CatOther, Risk: core.RiskLow},
	}
	if diff := cmp.Diff(want, Fields(tags)); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyUnrecognisedTags(t *testing.T) {
	tags := core.Tags{"Foo": "x", "bar": 1, "Baz": 2.346, "qux": []string{"a", "b"}, "Zed": []int{1, 2}}
	c := Classify(tags)
	if len(c.Fields) != 0 {
		t.Errorf("Fields = %+v, want none", c.Fields)
	}
	want := []core.TagRow{
		{Key: "bar", Value: "1"},
		{Key: "Baz", Value: "2.35"},
		{Key: "Foo", Value: "x"},
		{Key: "qux", Value: "a, b"},
		{Key: "Zed", Value: "1, 2"},
	}
	if diff := cmp.Diff(want, c.All); diff != "" {
		t.Errorf("All mismatch (-want +got):\n%s", diff)
	}
	if !c.ShowAll {
		t.Error("ShowAll = false with tags present")
	}
}

func TestClassifyEmptyAndIdempotent(t *testing.T) {
	for _, tags := range []core.Tags{nil, {}} {
		c := Classify(tags)
		if len(c.Fields) != 0 || len(c.All) != 0 || c.ShowAll {
			t.Errorf("Classify(%v) = %+v", tags, c)
		}
	}

	tags := core.Tags{"Make": "Acme", "latitude": 1.5, "longitude": 2.5, "Empty": nil}
	first, second := Classify(tags), Classify(tags)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Classify not deterministic (-first +second):\n%s", diff)
	}
	for _, r := range first.All {
		if r.Key == "Empty" {
			t.Error("nil tag listed")
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{42, "42"},
		{uint16(7), "7"},
		{3.0, "3"},
		{3.14159, "3.14"},
		{[]float64{45, 27, 51.12}, "45, 27, 51.12"},
		{[]any{"a", 1}, "a, 1"},
		{time.Date(2024, 2, 29, 8, 5, 9, 0, time.UTC), "2024-02-29 08:05:09"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
