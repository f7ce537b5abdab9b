package preset

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
)

func TestSaveLoadListDelete(t *testing.T) {
	s := NewStore(t.TempDir())

	p, err := s.Save("detractors", "low scorers", nps.Filter{MinScore: 0, MaxScore: 60})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p.ID == "" || p.Filter.Category != nps.AllCategories {
		t.Fatalf("unexpected preset: %+v", p)
	}

	again, err := s.Save("detractors", "updated", nps.Filter{Category: "A", MinScore: 0, MaxScore: 50})
	if err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	if again.ID != p.ID || !again.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("re-save should keep identity: %+v vs %+v", again, p)
	}

	if _, err := s.Save("promoters", "", nps.Filter{MinScore: 90, MaxScore: 100}); err != nil {
		t.Fatalf("Save promoters: %v", err)
	}
	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "detractors" || list[1].Name != "promoters" {
		t.Fatalf("list = %+v", list)
	}

	got, err := s.Load("detractors")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Description != "updated" || got.Filter.Category != "A" || got.Filter.MaxScore != 50 {
		t.Fatalf("loaded = %+v", got)
	}

	if err := s.Delete("detractors"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load("detractors"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete("detractors"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Save("../escape", "", nps.FullRange()); err == nil {
		t.Fatalf("expected invalid name error")
	}
	var fe *nps.FilterError
	if _, err := s.Save("bad", "", nps.Filter{MinScore: 90, MaxScore: 10}); !errors.As(err, &fe) {
		t.Fatalf("expected FilterError, got %v", err)
	}
}

func TestListMissingDir(t *testing.T) {
	list, err := NewStore(t.TempDir() + "/nope").List()
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
}
