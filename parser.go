package wire

import (
	"log"
)

// Handler processes one decoded event's value cursor (spec §4.5 "Event
// parser").
type Handler func(in *ValueIn) error

// Parser dispatches named or numeric-id events from a document's mapping
// to registered handlers (spec §4.5), structurally the same name/id
// dual-keyed table as _examples/other_examples/creachadair-chirp's
// Catalog (methods map[string]uint32 plus its implied reverse lookup),
// applied here to event dispatch instead of RPC method binding.
type Parser struct {
	byName map[string]Handler
	names  map[int64]string // id -> registered name (spec §4.3 id->name table)
	order  []string
	def    Handler
}

// NewParser creates an empty Parser. def, if non-nil, handles any event
// whose name or id has no registered handler (spec §4.5 "a default handler
// for unregistered events").
func NewParser(def Handler) *Parser {
	return &Parser{
		byName: make(map[string]Handler),
		names:  make(map[int64]string),
		def:    def,
	}
}

// Register binds name to h, overwriting any previous binding — used for
// handlers that are expected to be (re)registered deliberately.
func (p *Parser) Register(name string, h Handler) {
	if _, exists := p.byName[name]; !exists {
		p.order = append(p.order, name)
	}
	p.byName[name] = h
}

// RegisterID binds a numeric event id (binary dialect only) to h under its
// readable name, and remembers name in the id->name table so a binary
// reader can resolve an id-keyed entry back to the same handler (spec §4.3,
// §4.5 "field-id fallback").
func (p *Parser) RegisterID(id int64, name string, h Handler) {
	p.names[id] = name
	p.Register(name, h)
}

// RegisterOnce binds name to h only if nothing is already registered for
// it; a duplicate registration is logged and ignored, mirroring
// WireParser.java's Jvm.warn().on(...) behavior for redundant registration
// (kept as a stdlib log.Printf call per this module's ambient-stack
// decision not to add a logging dependency for parser-level diagnostics).
func (p *Parser) RegisterOnce(name string, h Handler) {
	if _, exists := p.byName[name]; exists {
		log.Printf("wire: parser: %q already registered, ignoring duplicate registration", name)
		return
	}
	p.Register(name, h)
}

// Accept dispatches every event in in's document body to its handler,
// falling back to the default handler for unrecognized events, and to the
// id's registered name when a binary stream references an event by
// numeric id whose handler isn't registered under that id directly (spec
// §4.5 "field-id fallback"). It installs this Parser's id->name table on
// w first, so ReadEventName can resolve an id-keyed entry written with
// WriteEventId back to its registered name (spec §4.3) before Accept ever
// looks the name up. Accept stops and returns ErrProtocolViolation if no
// handler exists for an event and no default handler was supplied; if a
// handler itself returns an error, Accept stops and returns that error
// unchanged. If a single dispatch makes no progress (the handler exists
// but the value cursor is nil), Accept logs a warning and returns
// ErrProtocolViolation, matching WireParser.java's "failed to progress"
// guard against an infinite loop on a malformed stream.
func (p *Parser) Accept(w Wire) error {
	w.SetIDNames(p.names)
	for {
		name, in, ok := w.ReadEventName()
		if !ok {
			return nil
		}
		h, found := p.byName[name]
		if !found {
			h = p.def
		}
		if h == nil {
			return ErrProtocolViolation
		}
		if in == nil {
			log.Printf("wire: parser: failed to progress on event %q, stopping", name)
			return ErrProtocolViolation
		}
		if err := h(in); err != nil {
			return err
		}
	}
}

// NameForID returns the readable name registered for a numeric event id,
// if any (spec §4.5 "field-id fallback").
func (p *Parser) NameForID(id int64) (string, bool) {
	name, ok := p.names[id]
	return name, ok
}
