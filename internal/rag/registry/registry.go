package registry

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/rag/vectorDB"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

// ErrScopeNotFound means the requested folder has no live index. Callers
// surface it as a recoverable "index this folder first" condition.
var ErrScopeNotFound = errors.New("no index found for folder")

// Registry tracks which folder scopes have an index and where it lives.
// The in-process cache is a convenience, storage is the source of truth:
// on startup the cache is warmed from the persisted records.
type Registry struct {
	db     vectorDB.DataProcessor
	logger *logger_i.Logger

	mu      sync.RWMutex
	records map[string]commonModels.IndexRecord //keyed by canonical path

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex //one writer per canonical path
}

func New(ctx context.Context, db vectorDB.DataProcessor) (*Registry, error) {
	r := &Registry{
		db:      db,
		logger:  logger_i.NewLogger("Registry"),
		records: make(map[string]commonModels.IndexRecord),
		locks:   make(map[string]*sync.Mutex),
	}

	persisted, err := db.LoadIndexRecords(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range persisted {
		r.records[rec.CanonicalPath] = rec
	}
	r.logger.Info("registry warmed from storage", "scopes", len(r.records))
	return r, nil
}

// Lock returns the write lock for one canonical path. Concurrent rebuilds of
// different scopes proceed in parallel, rebuilds of the same scope serialize.
func (r *Registry) Lock(canonicalPath string) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()

	if l, ok := r.locks[canonicalPath]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[canonicalPath] = l
	return l
}

// Publish records a freshly built scope, in storage first and then in the
// cache, so a crash between the two never loses a record.
func (r *Registry) Publish(ctx context.Context, record commonModels.IndexRecord) error {
	if err := r.db.SaveIndexRecord(ctx, record); err != nil {
		return err
	}

	r.mu.Lock()
	r.records[record.CanonicalPath] = record
	r.mu.Unlock()

	r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).
		Info("scope published", "canonicalPath", record.CanonicalPath, "collection", record.Collection)
	return nil
}

// Resolve maps a folder reference to its index record. The reference may be
// a full canonical path or a bare folder id, which matches as the leaf
// segment of exactly one known path. When several paths share the leaf the
// most recently indexed one wins.
//
// A record whose backing collection has disappeared is evicted and reported
// as not found, so stale registry state never reaches the retriever.
func (r *Registry) Resolve(ctx context.Context, ref string) (commonModels.IndexRecord, error) {
	rec, ok := r.lookup(ref)
	if !ok {
		return commonModels.IndexRecord{}, ErrScopeNotFound
	}

	exists, err := r.db.CollectionExists(ctx, rec.Collection)
	if err != nil {
		return commonModels.IndexRecord{}, err
	}
	if !exists {
		r.logger.Warn("evicting scope with missing collection", "canonicalPath", rec.CanonicalPath)
		r.Invalidate(ctx, rec.CanonicalPath)
		return commonModels.IndexRecord{}, ErrScopeNotFound
	}

	return rec, nil
}

func (r *Registry) lookup(ref string) (commonModels.IndexRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rec, ok := r.records[ref]; ok {
		return rec, true
	}

	//leaf-id fallback
	var candidates []commonModels.IndexRecord
	suffix := "/" + ref
	for path, rec := range r.records {
		if strings.HasSuffix(path, suffix) {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) == 0 {
		return commonModels.IndexRecord{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].IndexedAt.After(candidates[j].IndexedAt)
	})
	return candidates[0], true
}

// Invalidate drops a scope from cache and storage without touching its
// collection. Used when the collection is already gone.
func (r *Registry) Invalidate(ctx context.Context, canonicalPath string) {
	r.mu.Lock()
	delete(r.records, canonicalPath)
	r.mu.Unlock()

	if err := r.db.DeleteIndexRecord(ctx, canonicalPath); err != nil {
		r.logger.Error("could not delete stale index record", "canonicalPath", canonicalPath, "error", err)
	}
}

// Delete removes a scope entirely: its collection, its persisted record and
// the cache entry.
func (r *Registry) Delete(ctx context.Context, ref string) (commonModels.IndexRecord, error) {
	rec, ok := r.lookup(ref)
	if !ok {
		return commonModels.IndexRecord{}, ErrScopeNotFound
	}

	lock := r.Lock(rec.CanonicalPath)
	lock.Lock()
	defer lock.Unlock()

	if err := r.db.DeleteCollection(ctx, rec.Collection); err != nil {
		return commonModels.IndexRecord{}, err
	}
	r.Invalidate(ctx, rec.CanonicalPath)

	r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).
		Info("scope deleted", "canonicalPath", rec.CanonicalPath)
	return rec, nil
}

// Structure renders the indexed scopes under a root as a tree. A scope is a
// child of the deepest indexed ancestor on its path, not necessarily its
// direct parent folder.
func (r *Registry) Structure(ctx context.Context, ref string, maxDepth int) (*commonModels.StructureNode, error) {
	root, err := r.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	var descendants []commonModels.IndexRecord
	prefix := root.CanonicalPath + "/"
	for path, rec := range r.records {
		if strings.HasPrefix(path, prefix) {
			descendants = append(descendants, rec)
		}
	}
	r.mu.RUnlock()

	//shallower paths first, so each node's parent is already placed
	sort.Slice(descendants, func(i, j int) bool {
		return strings.Count(descendants[i].CanonicalPath, "/") < strings.Count(descendants[j].CanonicalPath, "/")
	})

	tree := toStructureNode(root)
	nodes := map[string]*commonModels.StructureNode{root.CanonicalPath: tree}
	rootDepth := strings.Count(root.CanonicalPath, "/")

	for _, rec := range descendants {
		if strings.Count(rec.CanonicalPath, "/")-rootDepth > maxDepth {
			continue
		}
		parent := deepestPlacedAncestor(nodes, rec.CanonicalPath)
		if parent == nil {
			continue
		}
		child := toStructureNode(rec)
		parent.Children = append(parent.Children, child)
		nodes[rec.CanonicalPath] = child
	}

	return tree, nil
}

func deepestPlacedAncestor(nodes map[string]*commonModels.StructureNode, path string) *commonModels.StructureNode {
	for {
		idx := strings.LastIndex(path, "/")
		if idx <= 0 {
			return nil
		}
		path = path[:idx]
		if node, ok := nodes[path]; ok {
			return node
		}
	}
}

func toStructureNode(rec commonModels.IndexRecord) *commonModels.StructureNode {
	return &commonModels.StructureNode{
		FolderId:      rec.FolderId,
		CanonicalPath: rec.CanonicalPath,
		IndexedAt:     rec.IndexedAt,
	}
}
