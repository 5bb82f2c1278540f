package store

import "testing"

func TestBackupRecordAndList(t *testing.T) {
	bs := NewBackupStore(newTestDB(t))

	b, err := bs.Record("backups/cradle-20260828.db.enc", 4096)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.SizeBytes != 4096 {
		t.Errorf("size = %d, want 4096", b.SizeBytes)
	}

	records, err := bs.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestBackupGetByID(t *testing.T) {
	bs := NewBackupStore(newTestDB(t))

	b, err := bs.Record("backups/cradle-20260828.db.enc", 1024)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.Key != b.Key {
		t.Fatalf("got %+v", got)
	}

	missing, err := bs.GetByID(9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil, got %+v", missing)
	}
}
