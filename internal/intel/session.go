package intel

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Ranrar/Marco-sub004/internal/parser"
)

// Document is one open document. Its Result pointer is replaced whole on
// every edit; readers holding an old Result keep a consistent view
// because results and their document versions are immutable.
type Document struct {
	ID   uuid.UUID
	Name string

	mu  sync.Mutex
	res *parser.Result
}

// Result returns the current parse result.
func (d *Document) Result() *parser.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.res
}

// Session tracks open documents for an editor client. All edits to one
// document serialize on its mutex and go through the incremental reparse
// path, so concurrent reads always observe a complete Result.
type Session struct {
	parser *parser.Parser

	mu   sync.RWMutex
	docs map[string]*Document
}

func NewSession(p *parser.Parser) *Session {
	if p == nil {
		p = parser.New(nil)
	}
	return &Session{parser: p, docs: make(map[string]*Document)}
}

// Open parses text and registers it under name. Reopening a name
// replaces the previous document.
func (s *Session) Open(name string, text []byte, opts parser.Options) (*Document, error) {
	res, err := s.parser.ParseText(name, text, opts)
	if err != nil {
		return nil, err
	}
	doc := &Document{ID: uuid.New(), Name: name, res: res}
	s.mu.Lock()
	s.docs[name] = doc
	s.mu.Unlock()
	return doc, nil
}

// Edit applies one incremental edit to the named document and returns
// the new result.
func (s *Session) Edit(name string, e parser.Edit) (*parser.Result, error) {
	doc, err := s.get(name)
	if err != nil {
		return nil, err
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	res, err := s.parser.Reparse(doc.res, e)
	if err != nil {
		return nil, err
	}
	doc.res = res
	return res, nil
}

// Close drops the named document. Closing an unknown name is a no-op.
func (s *Session) Close(name string) {
	s.mu.Lock()
	delete(s.docs, name)
	s.mu.Unlock()
}

// Get returns the open document for name.
func (s *Session) Get(name string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	return doc, ok
}

// Names lists the open document names.
func (s *Session) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	return names
}

func (s *Session) get(name string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	if !ok {
		return nil, fmt.Errorf("intel: document %q is not open", name)
	}
	return doc, nil
}
