package model

// Mutability is the explicit write-mode of a model or simulator object.
type Mutability int

const (
	ReadOnly Mutability = iota
	Mutable
)

func (m Mutability) String() string {
	if m == Mutable {
		return "mutable"
	}
	return "read-only"
}

// Guard restores a previously saved mutability mode. Release is idempotent
// and must run on every exit path of a mutable scope.
type Guard struct {
	restore  func()
	released bool
}

func NewGuard(restore func()) *Guard {
	return &Guard{restore: restore}
}

func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.restore()
}
