package ast

// Local is a single local variable or parameter slot, owned by the
// enclosing Scope's push/pop lifetime (spec §3). Resolution rewrites
// every identifier reference to this local into ReadLocal/WriteLocal
// Cmds carrying Index.
type Local struct {
	Name         string
	DeclaredType string
	Index        int
	InitialValue *Cmd
	IsParameter  bool
}
