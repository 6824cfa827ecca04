package acceptance

import (
	"errors"
	"os"
	"testing"

	"github.com/eykd/scenariodoc/internal/entity"
)

func TestMarshalFeature_RoundTrip(t *testing.T) {
	feature, err := ParseSpec(loginSpec, "specs/login.txt")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	data, err := MarshalFeature(feature)
	if err != nil {
		t.Fatalf("MarshalFeature() error = %v", err)
	}
	got, err := UnmarshalFeature(data)
	if err != nil {
		t.Fatalf("UnmarshalFeature() error = %v", err)
	}
	if got.Title != "Login" || len(got.Scenarios) != 2 {
		t.Fatalf("got title %q with %d scenarios", got.Title, len(got.Scenarios))
	}
	if got.Scenarios[0].Steps[2].Keyword != "AND" {
		t.Errorf("Steps[2].Keyword = %q, want AND", got.Scenarios[0].Steps[2].Keyword)
	}
}

func TestUnmarshalFeature_Errors(t *testing.T) {
	if _, err := UnmarshalFeature([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := UnmarshalFeature([]byte(`{"scenarios":[{"status":"flaky"}]}`)); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestLoadFeature(t *testing.T) {
	files := map[string]string{
		"specs/login.txt":  loginSpec,
		"specs/cart.json":  `{"title":"Cart","scenarios":[{"description":"Add item","status":"failed","steps":[{"keyword":"GIVEN","text":"a cart","line":1}]}]}`,
		"specs/empty.json": `{"title":"Empty"}`,
	}
	read := func(path string) ([]byte, error) {
		body, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(body), nil
	}

	spec, err := LoadFeature("specs/login.txt", read)
	if err != nil {
		t.Fatalf("LoadFeature(txt) error = %v", err)
	}
	if len(spec.Scenarios) != 2 {
		t.Errorf("len(Scenarios) = %d, want 2", len(spec.Scenarios))
	}

	cart, err := LoadFeature("specs/cart.json", read)
	if err != nil {
		t.Fatalf("LoadFeature(json) error = %v", err)
	}
	if cart.SourceFile != "specs/cart.json" {
		t.Errorf("SourceFile = %q, want the file path", cart.SourceFile)
	}
	if cart.Scenarios[0].Status != entity.StatusFailed {
		t.Errorf("Status = %q, want failed", cart.Scenarios[0].Status)
	}

	if _, err := LoadFeature("specs/missing.txt", read); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}
