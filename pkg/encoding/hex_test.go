package encoding

import (
	"encoding/json"
	"strings"
	"testing"

	goyaml "github.com/goccy/go-yaml"
)

func TestHexData_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(HexData("hello"))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if want := `"68-65-6C-6C-6F"`; string(b) != want {
		t.Errorf("Marshal = %s; want %s", b, want)
	}
}

func TestHexData_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "dashed", input: `"68-65-6C-6C-6F"`, want: []byte("hello")},
		{name: "plain lowercase", input: `"68656c6c6f"`, want: []byte("hello")},
		{name: "spaced", input: `"de ad be ef"`, want: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "empty", input: `""`, want: []byte{}},
		{name: "null", input: `null`, want: nil},
		{name: "odd length", input: `"ABC"`, wantErr: true},
		{name: "not hex", input: `"ZZ"`, wantErr: true},
		{name: "number", input: `123`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var h HexData
			err := json.Unmarshal([]byte(tc.input), &h)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if string(h) != string(tc.want) {
				t.Errorf("Unmarshal = %v; want %v", h, tc.want)
			}
		})
	}
}

func TestHexData_YAML(t *testing.T) {
	type doc struct {
		Data HexData `yaml:"data"`
	}
	b, err := goyaml.Marshal(doc{Data: HexData{0x01, 0xff}})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(b), "01-FF") {
		t.Errorf("Marshal = %q; want it to contain 01-FF", b)
	}

	var d doc
	if err := goyaml.Unmarshal(b, &d); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if string(d.Data) != "\x01\xff" {
		t.Errorf("round trip = %x", d.Data)
	}
}

func TestHexData_String(t *testing.T) {
	if s := HexData(nil).String(); s != "" {
		t.Errorf("String(nil) = %q", s)
	}
	if s := (HexData{0x0a}).String(); s != "0A" {
		t.Errorf("String = %q; want 0A", s)
	}
}
