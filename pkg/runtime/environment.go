package runtime

// IOHandle is the evaluator's injected boundary for `read`/`puts`. The
// default filesystem/HTTP/AoC-aware implementation lives in pkg/iohandle;
// the evaluator only ever depends on this interface.
type IOHandle interface {
	Input(path string) (string, error)
	Output(args []string)
}

type cell struct {
	value   Value
	mutable bool
}

// Environment is a lexically-scoped variable binding scope: an
// identifier→cell map, a section-name→ordered-Section-list registry, an
// optional injected I/O handle, and a parent link (nil at the root).
type Environment struct {
	vars     map[string]*cell
	sections map[string][]*Section
	io       IOHandle
	parent   *Environment
}

func NewEnvironment() *Environment {
	return &Environment{vars: map[string]*cell{}, sections: map[string][]*Section{}}
}

// NewChild creates a scope whose parent is the receiver — used both for
// ordinary block scoping and for a Function call's parameter-binding
// scope.
func (e *Environment) NewChild() *Environment {
	child := NewEnvironment()
	child.parent = e
	return child
}

// Lookup walks the parent chain looking for name.
func (e *Environment) Lookup(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if c, ok := env.vars[name]; ok {
			return c.value, true
		}
	}
	return nil, false
}

// Declare binds name in this scope. Fails if name is already declared in
// this scope (not an ancestor — shadowing a parent binding is allowed).
func (e *Environment) Declare(name string, value Value, mutable bool) bool {
	if _, exists := e.vars[name]; exists {
		return false
	}
	e.vars[name] = &cell{value: value, mutable: mutable}
	return true
}

// Assign walks the parent chain looking for an existing, mutable binding
// and rebinds it. Returns false if the name is unbound or the cell it
// found is immutable.
func (e *Environment) Assign(name string, value Value) bool {
	for env := e; env != nil; env = env.parent {
		if c, ok := env.vars[name]; ok {
			if !c.mutable {
				return false
			}
			c.value = value
			return true
		}
	}
	return false
}

// AddSection appends a Section to this scope's registry for its name.
func (e *Environment) AddSection(s *Section) {
	e.sections[s.Name] = append(e.sections[s.Name], s)
}

// GetSections walks the parent chain, gathering every Section declared
// under name (outermost first).
func (e *Environment) GetSections(name string) []*Section {
	var all []*Section
	var chain []*Environment
	for env := e; env != nil; env = env.parent {
		chain = append(chain, env)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		all = append(all, chain[i].sections[name]...)
	}
	return all
}

// LastSection returns the last-declared Section for name, implementing
// the last-write-wins resolution for duplicate section declarations.
func (e *Environment) LastSection(name string) (*Section, bool) {
	all := e.GetSections(name)
	if len(all) == 0 {
		return nil, false
	}
	return all[len(all)-1], true
}

func (e *Environment) SetIO(io IOHandle) { e.io = io }

// IO walks the parent chain for the nearest injected I/O handle.
func (e *Environment) IO() IOHandle {
	for env := e; env != nil; env = env.parent {
		if env.io != nil {
			return env.io
		}
	}
	return nil
}
