package registry

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
)

type mockVectorDB struct {
	records       map[string]commonModels.IndexRecord
	existing      map[string]bool
	deletedColls  []string
	loadErr       error
	collExistsErr error
}

func newMockDB() *mockVectorDB {
	return &mockVectorDB{
		records:  map[string]commonModels.IndexRecord{},
		existing: map[string]bool{},
	}
}

func (m *mockVectorDB) SaveIndexRecord(ctx context.Context, record commonModels.IndexRecord) error {
	m.records[record.CanonicalPath] = record
	return nil
}
func (m *mockVectorDB) LoadIndexRecords(ctx context.Context) ([]commonModels.IndexRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	var out []commonModels.IndexRecord
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}
func (m *mockVectorDB) DeleteIndexRecord(ctx context.Context, canonicalPath string) error {
	delete(m.records, canonicalPath)
	return nil
}
func (m *mockVectorDB) CollectionExists(ctx context.Context, collection string) (bool, error) {
	if m.collExistsErr != nil {
		return false, m.collExistsErr
	}
	return m.existing[collection], nil
}
func (m *mockVectorDB) DeleteCollection(ctx context.Context, collection string) error {
	m.deletedColls = append(m.deletedColls, collection)
	delete(m.existing, collection)
	return nil
}
func (m *mockVectorDB) EnsureCollection(ctx context.Context, collection string) error { return nil }
func (m *mockVectorDB) UpsertBatch(ctx context.Context, collection string, chunks []commonModels.Node, vectors [][]float32) error {
	return nil
}
func (m *mockVectorDB) Search(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error) {
	return nil, nil
}
func (m *mockVectorDB) ScrollAll(ctx context.Context, collection string) ([]commonModels.ScoredNode, error) {
	return nil, nil
}
func (m *mockVectorDB) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	return "", false, nil
}
func (m *mockVectorDB) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	return nil
}

func record(path string, folderID string, collection string, age time.Duration) commonModels.IndexRecord {
	return commonModels.IndexRecord{
		FolderId:      folderID,
		CanonicalPath: path,
		Collection:    collection,
		IndexedAt:     time.Now().Add(-age),
	}
}

func TestRegistry_PublishAndResolve(t *testing.T) {
	db := newMockDB()
	db.existing["coll-a"] = true
	reg, err := New(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}

	rec := record("/root/child", "child", "coll-a", 0)
	if err := reg.Publish(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	t.Run("by canonical path", func(t *testing.T) {
		got, err := reg.Resolve(context.Background(), "/root/child")
		if err != nil {
			t.Fatal(err)
		}
		if got.Collection != "coll-a" {
			t.Errorf("got collection %s", got.Collection)
		}
	})

	t.Run("by leaf folder id", func(t *testing.T) {
		got, err := reg.Resolve(context.Background(), "child")
		if err != nil {
			t.Fatal(err)
		}
		if got.CanonicalPath != "/root/child" {
			t.Errorf("got path %s", got.CanonicalPath)
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		if _, err := reg.Resolve(context.Background(), "nope"); err != ErrScopeNotFound {
			t.Errorf("got %v, want ErrScopeNotFound", err)
		}
	})
}

func TestRegistry_LeafConflictPrefersNewest(t *testing.T) {
	db := newMockDB()
	db.existing["coll-old"] = true
	db.existing["coll-new"] = true
	reg, _ := New(context.Background(), db)

	reg.Publish(context.Background(), record("/a/shared", "shared", "coll-old", time.Hour))
	reg.Publish(context.Background(), record("/b/shared", "shared", "coll-new", 0))

	got, err := reg.Resolve(context.Background(), "shared")
	if err != nil {
		t.Fatal(err)
	}
	if got.Collection != "coll-new" {
		t.Errorf("expected the most recently indexed scope, got %s", got.Collection)
	}
}

func TestRegistry_EvictsWhenCollectionGone(t *testing.T) {
	db := newMockDB()
	reg, _ := New(context.Background(), db)

	//record exists but its collection does not
	reg.Publish(context.Background(), record("/root/stale", "stale", "coll-gone", 0))

	if _, err := reg.Resolve(context.Background(), "/root/stale"); err != ErrScopeNotFound {
		t.Fatalf("got %v, want ErrScopeNotFound", err)
	}

	//the stale record must also be gone from storage
	if _, ok := db.records["/root/stale"]; ok {
		t.Error("stale record was not evicted from storage")
	}
}

func TestRegistry_WarmsFromStorage(t *testing.T) {
	db := newMockDB()
	db.records["/root"] = record("/root", "root", "coll-r", 0)
	db.existing["coll-r"] = true

	reg, err := New(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := reg.Resolve(context.Background(), "root"); err != nil {
		t.Errorf("record persisted before restart must resolve, got %v", err)
	}
}

func TestRegistry_Delete(t *testing.T) {
	db := newMockDB()
	db.existing["coll-d"] = true
	reg, _ := New(context.Background(), db)
	reg.Publish(context.Background(), record("/root/gone", "gone", "coll-d", 0))

	rec, err := reg.Delete(context.Background(), "gone")
	if err != nil {
		t.Fatal(err)
	}
	if rec.CanonicalPath != "/root/gone" {
		t.Errorf("deleted wrong scope: %s", rec.CanonicalPath)
	}
	if len(db.deletedColls) != 1 || db.deletedColls[0] != "coll-d" {
		t.Errorf("collection not dropped: %v", db.deletedColls)
	}
	if _, err := reg.Resolve(context.Background(), "gone"); err != ErrScopeNotFound {
		t.Errorf("deleted scope still resolves: %v", err)
	}
}

func TestRegistry_Structure(t *testing.T) {
	db := newMockDB()
	for _, c := range []string{"c-root", "c-a", "c-b", "c-ab"} {
		db.existing[c] = true
	}
	reg, _ := New(context.Background(), db)

	reg.Publish(context.Background(), record("/root", "root", "c-root", 0))
	reg.Publish(context.Background(), record("/root/a", "a", "c-a", 0))
	reg.Publish(context.Background(), record("/root/b", "b", "c-b", 0))
	reg.Publish(context.Background(), record("/root/a/ab", "ab", "c-ab", 0))

	tree, err := reg.Structure(context.Background(), "root", 10)
	if err != nil {
		t.Fatal(err)
	}

	if tree.FolderId != "root" {
		t.Fatalf("wrong root: %s", tree.FolderId)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}

	var nodeA *commonModels.StructureNode
	for _, child := range tree.Children {
		if child.FolderId == "a" {
			nodeA = child
		}
	}
	if nodeA == nil {
		t.Fatal("child a missing")
	}
	if len(nodeA.Children) != 1 || nodeA.Children[0].FolderId != "ab" {
		t.Errorf("grandchild misplaced: %+v", nodeA.Children)
	}
}
