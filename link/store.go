package link

import (
	"context"
	"errors"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/linking"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/ipld/go-ipld-prime/traversal"

	"github.com/nasdf/odm/storage"
)

// RootLinkKey is the name of the key for the root link.
const RootLinkKey = "root"

// Store is a content addressable data store.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	lsys    linking.LinkSystem
}

// NewStore returns a new Store that uses the given storage to read and write content addressable data.
func NewStore(store storage.Storage) *Store {
	lsys := cidlink.DefaultLinkSystem()
	lsys.SetReadStorage(store)
	lsys.SetWriteStorage(store)

	return &Store{
		storage: store,
		lsys:    lsys,
	}
}

// Load returns the node matching the given link.
func (s *Store) Load(ctx context.Context, lnk datamodel.Link) (datamodel.Node, error) {
	return s.lsys.Load(linking.LinkContext{Ctx: ctx}, lnk, basicnode.Prototype.Any)
}

// Store writes the given node to the storage and returns its link.
func (s *Store) Store(ctx context.Context, node datamodel.Node) (datamodel.Link, error) {
	return s.lsys.Store(linking.LinkContext{Ctx: ctx}, linkPrototype, node)
}

// Traversal returns a traversal.Progress configured with the default values for this store.
func (s *Store) Traversal(ctx context.Context) traversal.Progress {
	return traversal.Progress{Cfg: &traversal.Config{
		Ctx:        ctx,
		LinkSystem: s.lsys,
		LinkTargetNodePrototypeChooser: func(datamodel.Link, linking.LinkContext) (datamodel.NodePrototype, error) {
			return basicnode.Prototype.Any, nil
		},
	}}
}

// GetNode returns the node at the given path starting from the given node.
//
// Links found along the path, including a link at the path itself, are loaded.
func (s *Store) GetNode(ctx context.Context, path datamodel.Path, node datamodel.Node) (datamodel.Node, error) {
	n, err := s.Traversal(ctx).Get(node, path)
	if err != nil {
		return nil, err
	}
	if n.Kind() != datamodel.Kind_Link {
		return n, nil
	}
	lnk, err := n.AsLink()
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, lnk)
}

// RootLink returns the current root link from the storage.
//
// It returns a nil link if no root has been written yet.
func (s *Store) RootLink(ctx context.Context) (datamodel.Link, error) {
	data, err := s.storage.Get(ctx, RootLinkKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id, err := cid.Decode(string(data))
	if err != nil {
		return nil, err
	}
	return cidlink.Link{Cid: id}, nil
}

// SetRootLink sets the storage root link to the given link value.
func (s *Store) SetRootLink(ctx context.Context, lnk datamodel.Link) error {
	return s.storage.Put(ctx, RootLinkKey, []byte(lnk.String()))
}

// update replaces the current root with the result of fn.
//
// The previous root becomes the parent of the new root. Updates are
// serialized so concurrent writers never lose each other's changes.
func (s *Store) update(ctx context.Context, fn func(r *root) error) (datamodel.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head, err := s.RootLink(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.loadRoot(ctx, head)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	r.parents = nil
	if head != nil {
		r.parents = []datamodel.Link{head}
	}
	n, err := buildRootNode(r)
	if err != nil {
		return nil, err
	}
	lnk, err := s.Store(ctx, n)
	if err != nil {
		return nil, err
	}
	if err := s.SetRootLink(ctx, lnk); err != nil {
		return nil, err
	}
	return lnk, nil
}

// History returns the root links starting from the current root and following the first parent.
func (s *Store) History(ctx context.Context) ([]datamodel.Link, error) {
	lnk, err := s.RootLink(ctx)
	if err != nil {
		return nil, err
	}
	var out []datamodel.Link
	for lnk != nil {
		out = append(out, lnk)
		r, err := s.loadRoot(ctx, lnk)
		if err != nil {
			return nil, err
		}
		lnk = nil
		if len(r.parents) > 0 {
			lnk = r.parents[0]
		}
	}
	return out, nil
}
