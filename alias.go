package wire

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// AliasEntry is one registered name↔type binding (spec §3 "Type alias").
type AliasEntry struct {
	Name    string
	Type    reflect.Type
	Factory func() any
}

// AliasRegistry is the bidirectional name↔class registry described in
// spec §3 and §5: "the class-alias pool is process-wide and must use a
// concurrent mapping; its mutations (addAlias) are idempotent and racing
// adds of the same alias are allowed." It is built on the same
// xsync.Map[K, V] the teacher uses for its reflection-shape cache
// (fixed.go's sizeCache) — here keyed by name and, in the reverse
// direction, by reflect.Type instead of by cached size.
type AliasRegistry struct {
	byName *xsync.Map[string, AliasEntry]
	byType *xsync.Map[reflect.Type, string]
}

// NewAliasRegistry creates an empty registry. Most callers should use
// DefaultAliases, the process-wide instance, unless test isolation
// requires a private one.
func NewAliasRegistry() *AliasRegistry {
	return &AliasRegistry{
		byName: xsync.NewMap[string, AliasEntry](),
		byType: xsync.NewMap[reflect.Type, string](),
	}
}

// DefaultAliases is the process-wide alias pool (spec §5).
var DefaultAliases = NewAliasRegistry()

// Register binds name to the type of sample, using factory to construct
// new instances on read. Registering a name again replaces its binding;
// repeating an identical registration therefore changes nothing, matching
// "racing adds of the same alias are allowed" — this module does not treat
// re-registration as an error, since concurrent identical registrations
// from parallel initialisers are expected in the teacher's process-wide-map
// idiom. When a name is rebound to a different type, the old type's
// reverse (type → name) entry is left in place.
func (r *AliasRegistry) Register(name string, sample any, factory func() any) {
	t := reflect.TypeOf(sample)
	r.byName.Store(name, AliasEntry{Name: name, Type: t, Factory: factory})
	r.byType.Store(t, name)
}

// AddAlias registers oldName as an additional, lenient lookup key for the
// type already registered under its canonical name (spec §4.4 "Aliasing":
// "addAlias(class, oldName) provides lenient acceptance of renamed types
// on read (still emits the current name)"). The type must already have a
// canonical name registered via Register.
func (r *AliasRegistry) AddAlias(sample any, oldName string) error {
	t := reflect.TypeOf(sample)
	canonical, ok := r.byType.Load(t)
	if !ok {
		return fmt.Errorf("%w: %s has no canonical alias registered", ErrClassNotFound, t)
	}
	entry, _ := r.byName.Load(canonical)
	r.byName.Store(oldName, entry)
	return nil
}

// Resolve looks up an alias by name. A lookup failure is reported, not
// silently ignored, per spec §3's alias invariant.
func (r *AliasRegistry) Resolve(name string) (AliasEntry, error) {
	entry, ok := r.byName.Load(name)
	if !ok {
		return AliasEntry{}, fmt.Errorf("%w: %q", ErrClassNotFound, name)
	}
	return entry, nil
}

// NameFor returns the canonical alias name registered for t, if any.
func (r *AliasRegistry) NameFor(t reflect.Type) (string, bool) {
	name, ok := r.byType.Load(t)
	return name, ok
}

// New constructs a fresh instance of the type registered under name,
// using the optional fallback if the alias isn't found (spec §7
// "ClassNotFound... recovered via the optional user-supplied fallback,
// else surfaced").
func (r *AliasRegistry) New(name string, fallback func(name string) (any, error)) (any, error) {
	entry, err := r.Resolve(name)
	if err != nil {
		if fallback != nil {
			return fallback(name)
		}
		return nil, err
	}
	return entry.Factory(), nil
}
