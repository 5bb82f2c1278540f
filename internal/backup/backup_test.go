package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cradlehq/cradle/internal/database"
	"github.com/cradlehq/cradle/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	puts    int
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func setupBackupTest(t *testing.T) (*Manager, *mockS3Client, *store.BackupStore) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dbPath := filepath.Join(t.TempDir(), "cradle.db")
	if err := os.WriteFile(dbPath, []byte("sqlite file contents for the snapshot"), 0600); err != nil {
		t.Fatalf("write db file: %v", err)
	}

	bs := store.NewBackupStore(db)
	m := NewManager(Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:     dbPath,
		Passphrase: "snapshot-pass",
	}, db, bs, nil)

	mock := newMockS3()
	m.client = mock
	m.retryBase = time.Millisecond
	return m, mock, bs
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config or passphrase the manager is disabled.
	m := NewManager(Config{}, nil, nil, nil)
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	m2 := NewManager(Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "p",
	}, nil, nil, nil)
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var mu sync.Mutex
	var received []Status
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "p",
	}, nil, nil, cb)

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("callbacks = %d, want 2", len(received))
	}
	if received[0].State != StateRunning || received[1].State != StateIdle {
		t.Errorf("states = %q, %q", received[0].State, received[1].State)
	}
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	m, mock, bs := setupBackupTest(t)

	record, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if record == nil || record.Key == "" {
		t.Fatal("expected backup record with key")
	}

	mock.mu.Lock()
	data, ok := mock.objects[record.Key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("object %q not uploaded", record.Key)
	}
	if bytes.Contains(data, []byte("sqlite file contents")) {
		t.Error("uploaded object contains plaintext")
	}

	plaintext, err := Decrypt(data, "snapshot-pass")
	if err != nil {
		t.Fatalf("decrypt uploaded object: %v", err)
	}
	if !bytes.Contains(plaintext, []byte("sqlite file contents")) {
		t.Error("decrypted object does not match database file")
	}

	records, err := bs.List(10)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if m.Status().State != StateIdle || m.Status().LastBackup == nil {
		t.Errorf("status = %+v, want idle with last backup", m.Status())
	}
}

func TestRunNowUploadFailure(t *testing.T) {
	m, mock, _ := setupBackupTest(t)
	mock.putErr = errors.New("bucket unreachable")

	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected error when upload fails")
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q, want %q", m.Status().State, StateError)
	}
	// Upload is retried before giving up.
	if mock.puts < 2 {
		t.Errorf("puts = %d, want retries", mock.puts)
	}
}

func TestDownload(t *testing.T) {
	m, _, _ := setupBackupTest(t)

	record, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}

	body, size, err := m.Download(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if int64(len(data)) != size {
		t.Errorf("size = %d, body = %d bytes", size, len(data))
	}
}

func TestDownloadMissingRecord(t *testing.T) {
	m, _, _ := setupBackupTest(t)

	if _, _, err := m.Download(context.Background(), 999); err == nil {
		t.Fatal("expected error for unknown backup id")
	}
}
