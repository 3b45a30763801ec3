package engine

// specialVars holds the engine-owned storage backing LoadVarX/StoreVarX,
// per spec.md 3 "Fields" and 4.1 "Variables and slots". NF lives on the
// Fields engine itself; FS and OFS keep their text here (fsText/ofsText)
// and are also pushed to Fields on every store, since field splitting and
// $0 rebuilding depend on them. The rest live here.
type specialVars struct {
	fsText   string
	ofsText  string
	ors      string
	rs       string
	nr       Int
	fnr      Int
	filename Str
	subsep   Str
	rstart   Int
	rlength  Int
	fi       Int
	argc     Int
	argv     Map[Int, Str]
	environ  Map[Str, Str]
}

func newSpecialVars() *specialVars {
	sv := &specialVars{fsText: " ", ofsText: " ", ors: "\n", rs: "\n", subsep: "\x1c"}
	sv.argv = AllocMap[Int, Str]()
	sv.environ = AllocMap[Str, Str]()
	return sv
}
