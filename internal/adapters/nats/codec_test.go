package natsadapter

import (
	"encoding/json"
	"testing"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/ports"
)

func TestEncodeDecode_QueryEvent(t *testing.T) {
	in := &ports.QueryEvent{
		Observer: domain.Observer{
			Location:  domain.GeoPoint{Lat: 46.5, Lon: 8.1},
			Elevation: 1800,
			Heading:   135,
			EyeHeight: 1.6,
		},
		Strategy:  "sightline",
		Peaks:     12,
		Visible:   7,
		Projected: 3,
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out ports.QueryEvent
	if err := Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != *in {
		t.Errorf("expected %+v, got %+v", *in, out)
	}
}

func TestToJSON(t *testing.T) {
	data, err := Encode(&ports.ViewshedEvent{JobID: "j1", Rings: 4, StoppedAt: -1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := ToJSON(data)
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if m["job_id"] != "j1" || m["stopped_at"] != float64(-1) {
		t.Errorf("unexpected payload %v", m)
	}
}

func TestEncodeDecode_ViewshedArena(t *testing.T) {
	in := &ports.ViewshedEvent{
		JobID:   "viewshed-abc",
		FOV:     360,
		Rings:   2,
		Samples: 6,
		Visible: 4,
		Arena: []ports.ViewshedRing{
			{Index: 0, Radius: 500, Start: 270, Step: 180, Visible: 2, Mask: "11"},
			{Index: 1, Radius: 1000, Start: 270, Step: 90, Visible: 2, Mask: "1010"},
		},
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out ports.ViewshedEvent
	if err := Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Arena) != 2 {
		t.Fatalf("expected 2 arena rings, got %d", len(out.Arena))
	}
	if out.Arena[1] != in.Arena[1] {
		t.Errorf("ring 1: expected %+v, got %+v", in.Arena[1], out.Arena[1])
	}
}

func TestEncode_RejectsNonObject(t *testing.T) {
	if _, err := Encode([]int{1, 2}); err == nil {
		t.Error("expected error for a non-object event")
	}
}

func TestDecode_Garbage(t *testing.T) {
	var out ports.QueryEvent
	if err := Decode([]byte{0xff, 0xff, 0xff}, &out); err == nil {
		t.Error("expected error for invalid protobuf")
	}
}

func TestQuerySubject(t *testing.T) {
	if got := QuerySubject("rings"); got != "peakview.query.rings" {
		t.Errorf("unexpected subject %s", got)
	}
}
