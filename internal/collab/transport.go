// Package collab fixes the contract between the document model and a
// collaborative-editing backend. Remote operations are applied through
// the same incremental reparse path as local edits, so the validator and
// the language-intelligence layer cannot tell them apart. The CRDT merge
// itself lives behind the Transport; only the operation application is
// specified here.
package collab

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Ranrar/Marco-sub004/internal/parser"
)

// ErrNotConnected is returned for operations on a disconnected transport.
var ErrNotConnected = errors.New("collab: transport not connected")

// Op is one contiguous text replacement in document byte offsets,
// against the version the patch was produced from.
type Op struct {
	Start uint32 `msgpack:"s"`
	End   uint32 `msgpack:"e"`
	Text  string `msgpack:"t"`
}

// Patch is an ordered batch of operations. Each op's offsets address the
// document as left by the previous op in the batch.
type Patch struct {
	Ops []Op `msgpack:"ops"`
}

// Encode serializes the patch for the wire.
func (p Patch) Encode() ([]byte, error) {
	return msgpack.Marshal(p)
}

// DecodePatch parses a wire patch.
func DecodePatch(data []byte) (Patch, error) {
	var p Patch
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return Patch{}, fmt.Errorf("collab: decode patch: %w", err)
	}
	return p, nil
}

// Transport is the connect/disconnect/apply/get-patch contract every
// backend satisfies: in-memory (tests), local IPC, networked.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect() error

	// ApplyRemoteOps applies a remote patch to the local document and
	// returns the updated parse result.
	ApplyRemoteOps(patch Patch) (*parser.Result, error)

	// LocalPatch drains the local operations accumulated since the
	// previous call.
	LocalPatch() Patch
}

// Memory is the in-memory Transport. It owns one document replica:
// local edits go through Edit and accumulate into the pending patch,
// remote patches come in through ApplyRemoteOps.
type Memory struct {
	parser *parser.Parser

	mu        sync.Mutex
	res       *parser.Result
	pending   []Op
	connected bool
}

// NewMemory wraps an already parsed document replica.
func NewMemory(p *parser.Parser, res *parser.Result) *Memory {
	return &Memory{parser: p, res: res}
}

func (m *Memory) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		return errors.New("collab: already connected")
	}
	m.connected = true
	return nil
}

func (m *Memory) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// Result returns the current parse result of the replica.
func (m *Memory) Result() *parser.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.res
}

// Edit applies a local edit and records it for the next LocalPatch.
func (m *Memory) Edit(e parser.Edit) (*parser.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, ErrNotConnected
	}
	res, err := m.parser.Reparse(m.res, e)
	if err != nil {
		return nil, err
	}
	m.res = res
	m.pending = append(m.pending, Op{Start: e.Start, End: e.End, Text: string(e.NewText)})
	return res, nil
}

func (m *Memory) ApplyRemoteOps(patch Patch) (*parser.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, ErrNotConnected
	}
	res := m.res
	for i, op := range patch.Ops {
		next, err := m.parser.Reparse(res, parser.Edit{
			Start:   op.Start,
			End:     op.End,
			NewText: []byte(op.Text),
		})
		if err != nil {
			return nil, fmt.Errorf("collab: remote op %d: %w", i, err)
		}
		res = next
	}
	m.res = res
	return res, nil
}

func (m *Memory) LocalPatch() Patch {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := m.pending
	m.pending = nil
	return Patch{Ops: ops}
}

var _ Transport = (*Memory)(nil)
