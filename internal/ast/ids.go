package ast

// NodeID addresses a node inside a Tree's arena. IDs are stable for the
// lifetime of the tree (and across incremental reparses for untouched
// nodes), so diagnostics and LSP responses may hold them without aliasing
// the node itself.
type NodeID uint32

const NoNode NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNode }
