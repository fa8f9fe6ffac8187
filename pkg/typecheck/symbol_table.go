package typecheck

import "lps/pkg/types"

type Symbol struct {
	Name string
	Type types.Type
}

// SymbolTable is one lexical scope. Resolve walks outwards, so an inner
// definition shadows the outer one until the scope is left.
type SymbolTable struct {
	Outer *SymbolTable
	store map[string]Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{store: make(map[string]Symbol)}
}

func NewEnclosedSymbolTable(outer *SymbolTable) *SymbolTable {
	s := NewSymbolTable()
	s.Outer = outer
	return s
}

func (s *SymbolTable) Define(name string, ty types.Type) Symbol {
	symbol := Symbol{Name: name, Type: ty}
	s.store[name] = symbol
	return symbol
}

func (s *SymbolTable) Resolve(name string) (Symbol, bool) {
	obj, ok := s.store[name]
	if !ok && s.Outer != nil {
		return s.Outer.Resolve(name)
	}
	return obj, ok
}

// DefinedHere reports whether name is bound in this scope itself.
func (s *SymbolTable) DefinedHere(name string) bool {
	_, ok := s.store[name]
	return ok
}
