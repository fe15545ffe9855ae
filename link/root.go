package link

import (
	"context"
	"maps"
	"slices"

	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

const (
	// RootCollectionsFieldName is the name of the collections field on a root.
	RootCollectionsFieldName = "Collections"
	// RootParentsFieldName is the name of the parents field on a root.
	RootParentsFieldName = "Parents"
)

// DocumentPath returns the path for the document in the given collection with the given id.
func DocumentPath(collection string, id string) datamodel.Path {
	return datamodel.ParsePath(RootCollectionsFieldName).
		AppendSegmentString(collection).
		AppendSegmentString(id)
}

// root is the decoded form of a root block.
type root struct {
	collections map[string]map[string]datamodel.Link
	parents     []datamodel.Link
}

func (s *Store) loadRoot(ctx context.Context, lnk datamodel.Link) (*root, error) {
	r := &root{collections: make(map[string]map[string]datamodel.Link)}
	if lnk == nil {
		return r, nil
	}
	n, err := s.Load(ctx, lnk)
	if err != nil {
		return nil, err
	}
	collections, err := n.LookupByString(RootCollectionsFieldName)
	if err != nil {
		return nil, err
	}
	for iter := collections.MapIterator(); !iter.Done(); {
		k, v, err := iter.Next()
		if err != nil {
			return nil, err
		}
		name, err := k.AsString()
		if err != nil {
			return nil, err
		}
		docs := make(map[string]datamodel.Link)
		for di := v.MapIterator(); !di.Done(); {
			dk, dv, err := di.Next()
			if err != nil {
				return nil, err
			}
			id, err := dk.AsString()
			if err != nil {
				return nil, err
			}
			docLink, err := dv.AsLink()
			if err != nil {
				return nil, err
			}
			docs[id] = docLink
		}
		r.collections[name] = docs
	}
	parents, err := n.LookupByString(RootParentsFieldName)
	if err != nil {
		return nil, err
	}
	for iter := parents.ListIterator(); !iter.Done(); {
		_, v, err := iter.Next()
		if err != nil {
			return nil, err
		}
		p, err := v.AsLink()
		if err != nil {
			return nil, err
		}
		r.parents = append(r.parents, p)
	}
	return r, nil
}

// buildRootNode returns a root node containing the collections of r.
func buildRootNode(r *root) (datamodel.Node, error) {
	names := slices.Sorted(maps.Keys(r.collections))
	return qp.BuildMap(basicnode.Prototype.Map, 2, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, RootCollectionsFieldName, qp.Map(int64(len(names)), func(ma datamodel.MapAssembler) {
			for _, name := range names {
				docs := r.collections[name]
				ids := slices.Sorted(maps.Keys(docs))
				qp.MapEntry(ma, name, qp.Map(int64(len(ids)), func(ma datamodel.MapAssembler) {
					for _, id := range ids {
						qp.MapEntry(ma, id, qp.Link(docs[id]))
					}
				}))
			}
		}))
		qp.MapEntry(ma, RootParentsFieldName, qp.List(int64(len(r.parents)), func(la datamodel.ListAssembler) {
			for _, p := range r.parents {
				qp.ListEntry(la, qp.Link(p))
			}
		}))
	})
}
