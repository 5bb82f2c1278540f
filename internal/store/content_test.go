package store

import "testing"

func TestContentSeededPages(t *testing.T) {
	cs := NewContentStore(newTestDB(t))

	// Migrations seed the standard pages.
	for _, slug := range []string{"faq", "privacy", "terms", "about"} {
		p, err := cs.GetBySlug(slug)
		if err != nil {
			t.Fatalf("get %s: %v", slug, err)
		}
		if p == nil {
			t.Errorf("seeded page %q missing", slug)
		}
	}
}

func TestContentUpsertAndGet(t *testing.T) {
	cs := NewContentStore(newTestDB(t))

	before, err := cs.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	p, err := cs.Upsert("first-trimester", "The First Trimester", "What to expect...")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p.Slug != "first-trimester" {
		t.Errorf("slug = %q", p.Slug)
	}

	// Upserting the same slug updates in place.
	p, err = cs.Upsert("first-trimester", "The First Trimester", "Revised guidance...")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if p.Body != "Revised guidance..." {
		t.Errorf("body = %q", p.Body)
	}

	pages, err := cs.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pages) != len(before)+1 {
		t.Errorf("got %d pages, want %d", len(pages), len(before)+1)
	}
}

func TestContentGetMissingSlug(t *testing.T) {
	cs := NewContentStore(newTestDB(t))

	p, err := cs.GetBySlug("does-not-exist")
	if err != nil {
		t.Fatalf("get missing slug: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil, got %+v", p)
	}
}
