package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserDispatchesRegisteredHandler(t *testing.T) {
	p := NewParser(nil)
	var seen string
	p.Register("bark", func(in *ValueIn) error {
		text, err := in.Text()
		if err != nil {
			return err
		}
		seen = text
		return nil
	})

	w := newTextWire()
	w.Reset(nil, nil)
	w.WriteEventName("bark").Text("woof")
	w.ResetReading(w.ValueOut().target)

	require.NoError(t, p.Accept(w))
	assert.Equal(t, "woof", seen)
}

func TestParserFallsBackToDefaultHandler(t *testing.T) {
	p := NewParser(nil)
	var gotName string
	p.def = func(in *ValueIn) error { return nil }
	_ = gotName

	w := newTextWire()
	w.Reset(nil, nil)
	w.WriteEventName("unregistered").Text("x")
	w.ResetReading(w.ValueOut().target)

	require.NoError(t, p.Accept(w))
}

func TestParserErrorsWithoutDefaultHandler(t *testing.T) {
	p := NewParser(nil)

	w := newTextWire()
	w.Reset(nil, nil)
	w.WriteEventName("unregistered").Text("x")
	w.ResetReading(w.ValueOut().target)

	err := p.Accept(w)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestParserRegisterIDFallbackName(t *testing.T) {
	p := NewParser(nil)
	p.RegisterID(42, "price", func(in *ValueIn) error { return nil })

	name, ok := p.NameForID(42)
	require.True(t, ok)
	assert.Equal(t, "price", name)

	// Registering by id also registers the readable name so text/JSON
	// streams referencing the same event by name dispatch correctly.
	_, byName := p.byName["price"]
	assert.True(t, byName)
}

func TestParserAcceptDispatchesBinaryEventByID(t *testing.T) {
	p := NewParser(nil)
	var seen int64
	p.RegisterID(42, "price", func(in *ValueIn) error {
		n, err := in.Int64()
		if err != nil {
			return err
		}
		seen = n
		return nil
	})

	w := newBinaryWire()
	w.Reset(nil, nil)
	w.WriteEventId(42).Int64(99)
	w.ResetReading(w.ValueOut().target)

	require.NoError(t, p.Accept(w))
	assert.EqualValues(t, 99, seen)
}

func TestParserRegisterOnceIgnoresDuplicate(t *testing.T) {
	p := NewParser(nil)
	calls := 0
	p.RegisterOnce("x", func(in *ValueIn) error { calls++; return nil })
	p.RegisterOnce("x", func(in *ValueIn) error { calls += 100; return nil })

	w := newTextWire()
	w.Reset(nil, nil)
	w.WriteEventName("x").Text("v")
	w.ResetReading(w.ValueOut().target)

	require.NoError(t, p.Accept(w))
	assert.Equal(t, 1, calls, "the first registration must win")
}
