package store

import "sync"

// BatchedStore buffers one file's extraction output in memory using fake
// (negative) IDs; Store.CommitBatch then writes the whole buffer in a
// single transaction. Files are indexed and committed one at a time.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Cross-file read queries (DefinitionsByName, DefinitionsByFile) pass
// through to the underlying Store, which is safe for concurrent reads.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Definitions []Definition
	Scopes      []Scope
	Params      []Param
	TypeParams  []Param
	Decorators  []Decorator
	References  []Reference
	Imports     []Import

	nextFakeID int64 // starts at -1, decrements
}

var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by s for read-passthrough.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s, nextFakeID: -1}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertFile(f *File) (int64, error) {
	// Files are never buffered: each worker already owns a real file row
	// (created up front so child rows can reference file_id immediately).
	return b.store.InsertFile(f)
}

func (b *BatchedStore) InsertScope(sc *Scope) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocFakeID()
	sc.ID = id
	b.Scopes = append(b.Scopes, *sc)
	return id, nil
}

func (b *BatchedStore) InsertDefinition(d *Definition) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocFakeID()
	d.ID = id
	b.Definitions = append(b.Definitions, *d)
	return id, nil
}

func (b *BatchedStore) InsertParam(p *Param) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocFakeID()
	p.ID = id
	b.Params = append(b.Params, *p)
	return id, nil
}

func (b *BatchedStore) InsertTypeParam(tp *Param) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocFakeID()
	tp.ID = id
	b.TypeParams = append(b.TypeParams, *tp)
	return id, nil
}

func (b *BatchedStore) InsertDecorator(dec *Decorator) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocFakeID()
	dec.ID = id
	b.Decorators = append(b.Decorators, *dec)
	return id, nil
}

func (b *BatchedStore) InsertReference(r *Reference) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocFakeID()
	r.ID = id
	b.References = append(b.References, *r)
	return id, nil
}

func (b *BatchedStore) InsertImport(im *Import) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocFakeID()
	im.ID = id
	b.Imports = append(b.Imports, *im)
	return id, nil
}

// DefinitionsByName passes through to the underlying Store.
func (b *BatchedStore) DefinitionsByName(name string) ([]*Definition, error) {
	return b.store.DefinitionsByName(name)
}

// DefinitionsByFile merges buffered (not yet committed) definitions for
// fileID with those already committed to the database.
func (b *BatchedStore) DefinitionsByFile(fileID int64) ([]*Definition, error) {
	committed, err := b.store.DefinitionsByFile(fileID)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Definitions {
		if b.Definitions[i].FileID == fileID {
			committed = append(committed, &b.Definitions[i])
		}
	}
	return committed, nil
}
