package lineage

// Scope resolves aliases to real table names across nested statements.
// The innermost scope is searched first; the root scope is never popped.
type Scope struct {
	stack []map[string]string
}

// NewScope returns a scope stack holding only the root scope.
func NewScope() *Scope {
	return &Scope{stack: []map[string]string{{}}}
}

// Push enters a nested scope.
func (s *Scope) Push() {
	s.stack = append(s.stack, map[string]string{})
}

// Pop leaves the innermost scope. Popping the root scope is a no-op.
func (s *Scope) Pop() {
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// Depth returns the number of scopes, root included.
func (s *Scope) Depth() int {
	return len(s.stack)
}

// Register binds alias to realName in the innermost scope. Empty arguments
// are ignored.
func (s *Scope) Register(alias, realName string) {
	if alias == "" || realName == "" {
		return
	}
	s.stack[len(s.stack)-1][alias] = realName
}

// Resolve returns the real name bound to name, searching from the innermost
// scope outwards. ok is false when name is not an alias.
func (s *Scope) Resolve(name string) (realName string, ok bool) {
	if name == "" {
		return "", false
	}
	for i := len(s.stack) - 1; i >= 0; i-- {
		if real, found := s.stack[i][name]; found {
			return real, true
		}
	}
	return "", false
}
