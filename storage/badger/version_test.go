package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docpipe/core"
	"github.com/poiesic/docpipe/storage"
)

func newTestRepos(t *testing.T) (storage.VersionRepository, storage.DocumentRepository, *Backend) {
	t.Helper()

	versionRepo, documentRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("NewMemoryRepositories() error = %v", err)
	}
	t.Cleanup(func() {
		versionRepo.Close()
		documentRepo.Close()
		backend.Close()
	})

	return versionRepo, documentRepo, backend
}

func testVersion(versionID, documentID, hash string, createdAt time.Time) *core.DocumentVersion {
	return &core.DocumentVersion{
		VersionID:        versionID,
		DocumentID:       documentID,
		VersionNumber:    "1.0.0",
		ContentHash:      hash,
		FilePath:         "/tmp/" + documentID + ".txt",
		OriginalFilename: documentID + ".txt",
		FileSize:         42,
		CreatedAt:        createdAt,
		Status:           core.VersionActive,
	}
}

func TestVersionRepository_PutGet(t *testing.T) {
	repo, _, _ := newTestRepos(t)
	ctx := context.Background()

	version := testVersion("v1", "doc", "hash1", time.Now().UTC())
	if err := repo.PutVersion(ctx, version); err != nil {
		t.Fatalf("PutVersion() error = %v", err)
	}

	got, err := repo.GetVersion(ctx, "v1")
	if err != nil {
		t.Fatalf("GetVersion() error = %v", err)
	}
	if got.VersionID != "v1" || got.DocumentID != "doc" || got.ContentHash != "hash1" {
		t.Errorf("GetVersion() = %+v, want stored version", got)
	}
	if got.Status != core.VersionActive {
		t.Errorf("GetVersion() status = %s, want %s", got.Status, core.VersionActive)
	}
}

func TestVersionRepository_GetMissing(t *testing.T) {
	repo, _, _ := newTestRepos(t)

	_, err := repo.GetVersion(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetVersion() error = %v, want ErrNotFound", err)
	}
}

func TestVersionRepository_FindByHash(t *testing.T) {
	repo, _, _ := newTestRepos(t)
	ctx := context.Background()

	version := testVersion("v1", "doc", "hash1", time.Now().UTC())
	if err := repo.PutVersion(ctx, version); err != nil {
		t.Fatalf("PutVersion() error = %v", err)
	}

	got, err := repo.FindVersionByHash(ctx, "hash1")
	if err != nil {
		t.Fatalf("FindVersionByHash() error = %v", err)
	}
	if got.VersionID != "v1" {
		t.Errorf("FindVersionByHash() = %s, want v1", got.VersionID)
	}

	if _, err := repo.FindVersionByHash(ctx, "other"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindVersionByHash() error = %v, want ErrNotFound", err)
	}
}

func TestVersionRepository_GetDocumentVersions_Ordering(t *testing.T) {
	repo, _, _ := newTestRepos(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"v1", "v2", "v3"} {
		v := testVersion(id, "doc", "hash"+id, base.Add(time.Duration(i)*time.Minute))
		if err := repo.PutVersion(ctx, v); err != nil {
			t.Fatalf("PutVersion(%s) error = %v", id, err)
		}
	}
	// A version of another document must not appear.
	other := testVersion("vx", "other", "hashx", base)
	if err := repo.PutVersion(ctx, other); err != nil {
		t.Fatalf("PutVersion(vx) error = %v", err)
	}

	versions, err := repo.GetDocumentVersions(ctx, "doc")
	if err != nil {
		t.Fatalf("GetDocumentVersions() error = %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("GetDocumentVersions() returned %d versions, want 3", len(versions))
	}
	for i, want := range []string{"v3", "v2", "v1"} {
		if versions[i].VersionID != want {
			t.Errorf("versions[%d] = %s, want %s (newest first)", i, versions[i].VersionID, want)
		}
	}
}

func TestVersionRepository_Delete(t *testing.T) {
	repo, _, _ := newTestRepos(t)
	ctx := context.Background()

	version := testVersion("v1", "doc", "hash1", time.Now().UTC())
	if err := repo.PutVersion(ctx, version); err != nil {
		t.Fatalf("PutVersion() error = %v", err)
	}

	if err := repo.DeleteVersion(ctx, "v1"); err != nil {
		t.Fatalf("DeleteVersion() error = %v", err)
	}

	if _, err := repo.GetVersion(ctx, "v1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetVersion() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := repo.FindVersionByHash(ctx, "hash1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindVersionByHash() after delete error = %v, want ErrNotFound", err)
	}
	versions, err := repo.GetDocumentVersions(ctx, "doc")
	if err != nil {
		t.Fatalf("GetDocumentVersions() error = %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("GetDocumentVersions() after delete returned %d versions, want 0", len(versions))
	}

	if err := repo.DeleteVersion(ctx, "v1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteVersion() second call error = %v, want ErrNotFound", err)
	}
}

func TestVersionRepository_ListVersions(t *testing.T) {
	repo, _, _ := newTestRepos(t)
	ctx := context.Background()

	for _, id := range []string{"v1", "v2"} {
		if err := repo.PutVersion(ctx, testVersion(id, "doc-"+id, "hash"+id, time.Now().UTC())); err != nil {
			t.Fatalf("PutVersion(%s) error = %v", id, err)
		}
	}

	versions, err := repo.ListVersions(ctx)
	if err != nil {
		t.Fatalf("ListVersions() error = %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("ListVersions() returned %d versions, want 2", len(versions))
	}
}

func TestDocumentRepository_CRUD(t *testing.T) {
	_, repo, _ := newTestRepos(t)
	ctx := context.Background()

	record := &core.DocumentRecord{
		DocumentID:       "manual",
		OriginalFilename: "manual.txt",
		CreatedAt:        time.Now().UTC(),
		LatestVersion:    "v1",
		VersionCount:     1,
	}
	if err := repo.PutDocument(ctx, record); err != nil {
		t.Fatalf("PutDocument() error = %v", err)
	}

	got, err := repo.GetDocument(ctx, "manual")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.LatestVersion != "v1" || got.VersionCount != 1 {
		t.Errorf("GetDocument() = %+v, want stored record", got)
	}

	record.LatestVersion = "v2"
	record.VersionCount = 2
	if err := repo.PutDocument(ctx, record); err != nil {
		t.Fatalf("PutDocument() update error = %v", err)
	}
	got, err = repo.GetDocument(ctx, "manual")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.LatestVersion != "v2" || got.VersionCount != 2 {
		t.Errorf("GetDocument() after update = %+v", got)
	}

	records, err := repo.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("ListDocuments() returned %d records, want 1", len(records))
	}

	if err := repo.DeleteDocument(ctx, "manual"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if _, err := repo.GetDocument(ctx, "manual"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetDocument() after delete error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotStore(t *testing.T) {
	_, _, backend := newTestRepos(t)
	ctx := context.Background()

	store, err := NewSnapshotStore(backend)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}
	defer store.Close()

	if _, err := store.LoadSnapshot(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadSnapshot() on empty store error = %v, want ErrNotFound", err)
	}

	if err := store.SaveSnapshot(ctx, []byte(`{"state":1}`)); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := store.SaveSnapshot(ctx, []byte(`{"state":2}`)); err != nil {
		t.Fatalf("SaveSnapshot() overwrite error = %v", err)
	}

	data, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if string(data) != `{"state":2}` {
		t.Errorf("LoadSnapshot() = %s, want latest snapshot", data)
	}
}
