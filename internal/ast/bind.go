package ast

// Bind resolves every reference below root to its variable. It must run
// after all modules of the graph are linked, since module scopes consult
// import bindings. Children are bound before their parents so that member
// expressions can see whether their object is a namespace.
func Bind(root Node) {
	root.ForEachChild(Bind)
	switch n := root.(type) {
	case *Identifier:
		n.bind()
	case *ThisExpression:
		n.bind()
	case *MemberExpression:
		n.bind()
	}
}

// IncludeAll includes root and everything below it.
func IncludeAll(root Node) {
	root.Include(NewInclusionContext(), true)
}
