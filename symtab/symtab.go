// Package symtab implements the two-scope symbol table: one table of
// file-scope externs that lives for the whole compilation, and one table
// of the active function's locals that is cleared at each function
// boundary.
//
// Grounded on the original two flat, linearly-searched tables
// (SymTab/LocalSymTab in symtab.c); this implementation keeps the two
// tables but backs each with a Go map for O(1) lookup by name, the way
// gmofishsauce-y4/asm/sym.go indexes its symbol table.
package symtab

// StorageClass is one of the four storage classes a symbol may have.
type StorageClass int

const (
	Auto StorageClass = iota
	Extern
	Register
	Static
)

func (s StorageClass) String() string {
	switch s {
	case Auto:
		return "auto"
	case Extern:
		return "extern"
	case Register:
		return "register"
	case Static:
		return "static"
	}
	return "unknown"
}

// Type is one of the scalar types the code generator understands.
type Type int

const (
	Char Type = iota
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	Float
	Double
	Void
)

func (t Type) String() string {
	switch t {
	case Char:
		return "char"
	case UChar:
		return "unsigned char"
	case Short:
		return "short"
	case UShort:
		return "unsigned short"
	case Int:
		return "int"
	case UInt:
		return "unsigned int"
	case Long:
		return "long"
	case ULong:
		return "unsigned long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Void:
		return "void"
	}
	return "unknown"
}

// Size returns the storage size in bytes of one scalar of this type,
// ignoring any pointer indirection (a pointer of any pLevel > 0 is
// always 2 bytes on the target, handled separately by callers).
func (t Type) Size() int {
	switch t {
	case Char, UChar:
		return 1
	case Short, UShort, Int, UInt:
		return 2
	case Long, ULong, Float:
		return 4
	case Double:
		return 8
	case Void:
		return 0
	}
	return 0
}

// NoLabel is the sentinel stored in Symbol.Label for a symbol with no
// compiler-minted static storage label.
const NoLabel = -1

// Symbol is one entry in either table. Fields mirror symtab.c's struct
// Symbol plus the Go-native StorageClass/Type enums in place of the C
// integer codes.
type Symbol struct {
	Name         string
	StorageClass StorageClass
	Type         Type
	PLevel       int  // pointer-indirection depth; 0 means not a pointer
	Label        int  // compiler-minted label for static storage, or NoLabel
	FPOffset     int  // frame-pointer-relative offset for autos/params
	ReadOnly     bool
}

// IsPointer reports whether the symbol's value is pointer-sized
// regardless of its declared base Type.
func (s *Symbol) IsPointer() bool {
	return s.PLevel > 0
}

// Size returns the symbol's storage size in bytes, honouring pointer
// indirection (always 2 bytes) over the base type's own size.
func (s *Symbol) Size() int {
	if s.IsPointer() {
		return 2
	}
	return s.Type.Size()
}

const defaultCapacity = 256

// Table is one flat, name-keyed symbol table. The zero value is not
// ready for use; call New.
type Table struct {
	order    []string
	entries  map[string]*Symbol
	capacity int
}

// New returns an empty table bounded at capacity entries (matching the
// original's fixed-size MAXSYMS arrays; 0 means use the default of 256).
func New(capacity int) *Table {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Table{entries: make(map[string]*Symbol), capacity: capacity}
}

// Add inserts sym by name, returning false without modifying the table
// if a symbol with the same name is already present, or if the table is
// at capacity.
func (t *Table) Add(sym Symbol) (*Symbol, bool) {
	if _, exists := t.entries[sym.Name]; exists {
		return nil, false
	}
	if len(t.order) >= t.capacity {
		return nil, false
	}
	stored := sym
	t.entries[sym.Name] = &stored
	t.order = append(t.order, sym.Name)
	return &stored, true
}

// Lookup returns the symbol named name, or nil if no such symbol exists
// in this table. The returned pointer is stable for the lifetime of the
// table (entries are never relocated), so callers may hold it for the
// duration of the statement currently being parsed.
func (t *Table) Lookup(name string) *Symbol {
	return t.entries[name]
}

// Len reports how many symbols are currently in the table.
func (t *Table) Len() int {
	return len(t.order)
}

// Clear empties the table, as ForgetLocalSymbols did for the original's
// local table at the end of every function body.
func (t *Table) Clear() {
	t.order = nil
	t.entries = make(map[string]*Symbol)
}

// Names returns the names of the symbols currently in the table, in
// insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// SymbolTable bundles the two scopes the parser needs: Externs persists
// for the whole compilation, Locals is cleared at every function
// boundary via ForgetLocals.
type SymbolTable struct {
	Externs *Table
	Locals  *Table
}

// NewSymbolTable returns a fresh two-scope table, the extern table
// bounded at externCapacity and the local table at localCapacity (0
// selects the default of 256 for either).
func NewSymbolTable(externCapacity, localCapacity int) *SymbolTable {
	return &SymbolTable{
		Externs: New(externCapacity),
		Locals:  New(localCapacity),
	}
}

// AddExtern adds sym to the file-scope table.
func (s *SymbolTable) AddExtern(sym Symbol) (*Symbol, bool) {
	return s.Externs.Add(sym)
}

// LookupExtern looks up name in the file-scope table.
func (s *SymbolTable) LookupExtern(name string) *Symbol {
	return s.Externs.Lookup(name)
}

// AddLocal adds sym to the current function's local table.
func (s *SymbolTable) AddLocal(sym Symbol) (*Symbol, bool) {
	return s.Locals.Add(sym)
}

// LookupLocal looks up name in the current function's local table.
func (s *SymbolTable) LookupLocal(name string) *Symbol {
	return s.Locals.Lookup(name)
}

// Lookup looks a name up in the local table first, falling back to the
// extern table — the lexical-scoping rule the parser relies on whenever
// it resolves an identifier reference.
func (s *SymbolTable) Lookup(name string) *Symbol {
	if sym := s.Locals.Lookup(name); sym != nil {
		return sym
	}
	return s.Externs.Lookup(name)
}

// ForgetLocals clears the local table; called by the parser at the end
// of every function body.
func (s *SymbolTable) ForgetLocals() {
	s.Locals.Clear()
}
