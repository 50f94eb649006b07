package recipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"voxelfuel.ai/internal/sim/catalogs"
)

const DefaultNamespace = "voxelfuel"

var (
	ErrDuplicate   = errors.New("already registered")
	ErrUnknownType = errors.New("unknown recipe type")
)

// Identifier is a namespaced key such as "voxelfuel:fabrication".
type Identifier struct {
	Namespace string
	Path      string
}

func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	ns, path, found := strings.Cut(s, ":")
	if !found {
		ns, path = DefaultNamespace, s
	}
	if ns == "" || path == "" || strings.Contains(path, ":") {
		return Identifier{}, fmt.Errorf("bad identifier %q", s)
	}
	return Identifier{Namespace: ns, Path: path}, nil
}

func (id Identifier) String() string { return id.Namespace + ":" + id.Path }

type TypeHandle struct {
	ID    Identifier
	Index int
}

type SerializerHandle struct {
	ID    Identifier
	Index int
}

// Recipe is the common view of every decoded recipe.
type Recipe interface {
	RecipeID() string
	Type() Identifier
	Result() ItemCount
	TimeTicks() int
	Inputs() []string
}

type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Serializer decodes one recipe kind from its catalog JSON.
type Serializer interface {
	Decode(id string, raw json.RawMessage) (Recipe, error)
}

type SerializerFunc func(id string, raw json.RawMessage) (Recipe, error)

func (f SerializerFunc) Decode(id string, raw json.RawMessage) (Recipe, error) { return f(id, raw) }

// Registry is the type table plus the serializer table. It is filled once at
// startup and read-only afterwards.
type Registry struct {
	types       map[Identifier]TypeHandle
	serializers map[Identifier]Serializer
	serialIdx   map[Identifier]int
}

func NewRegistry() *Registry {
	return &Registry{
		types:       map[Identifier]TypeHandle{},
		serializers: map[Identifier]Serializer{},
		serialIdx:   map[Identifier]int{},
	}
}

func (r *Registry) RegisterType(id Identifier) (TypeHandle, error) {
	if _, ok := r.types[id]; ok {
		return TypeHandle{}, fmt.Errorf("recipe type %s: %w", id, ErrDuplicate)
	}
	h := TypeHandle{ID: id, Index: len(r.types)}
	r.types[id] = h
	return h, nil
}

func (r *Registry) RegisterSerializer(id Identifier, s Serializer) (SerializerHandle, error) {
	if s == nil {
		return SerializerHandle{}, fmt.Errorf("recipe serializer %s: nil", id)
	}
	if _, ok := r.serializers[id]; ok {
		return SerializerHandle{}, fmt.Errorf("recipe serializer %s: %w", id, ErrDuplicate)
	}
	idx := len(r.serializers)
	r.serializers[id] = s
	r.serialIdx[id] = idx
	return SerializerHandle{ID: id, Index: idx}, nil
}

func (r *Registry) Type(id Identifier) (TypeHandle, bool) {
	h, ok := r.types[id]
	return h, ok
}

func (r *Registry) Types() []Identifier {
	out := make([]Identifier, 0, len(r.types))
	for id := range r.types {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return r.types[out[i]].Index < r.types[out[j]].Index })
	return out
}

func (r *Registry) Decode(e catalogs.RecipeEntry) (Recipe, error) {
	typ, err := ParseIdentifier(e.Type)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", e.ID, err)
	}
	if _, ok := r.types[typ]; !ok {
		return nil, fmt.Errorf("recipe %s: %w %s", e.ID, ErrUnknownType, typ)
	}
	s, ok := r.serializers[typ]
	if !ok {
		return nil, fmt.Errorf("recipe %s: no serializer for %s", e.ID, typ)
	}
	rec, err := s.Decode(e.ID, e.Raw)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", e.ID, err)
	}
	return rec, nil
}

// Book is the decoded recipe catalog.
type Book struct {
	ByID   map[string]Recipe
	ByType map[Identifier][]Recipe
	Digest string
}

// Load decodes every catalog entry and checks that referenced items exist.
func (r *Registry) Load(cat catalogs.RecipeCatalog, items catalogs.ItemCatalog) (*Book, error) {
	b := &Book{
		ByID:   make(map[string]Recipe, len(cat.Entries)),
		ByType: map[Identifier][]Recipe{},
		Digest: cat.Digest,
	}
	for _, e := range cat.Entries {
		rec, err := r.Decode(e)
		if err != nil {
			return nil, err
		}
		for _, it := range append(rec.Inputs(), rec.Result().Item) {
			if _, ok := items.Defs[it]; !ok {
				return nil, fmt.Errorf("recipe %s: unknown item %s", e.ID, it)
			}
		}
		b.ByID[rec.RecipeID()] = rec
		b.ByType[rec.Type()] = append(b.ByType[rec.Type()], rec)
	}
	for _, list := range b.ByType {
		sort.Slice(list, func(i, j int) bool { return list[i].RecipeID() < list[j].RecipeID() })
	}
	return b, nil
}
