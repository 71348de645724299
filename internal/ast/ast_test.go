package ast

import (
	"math"
	"testing"

	"github.com/HugoDaniel/treeshaker/internal/objpath"
	"github.com/HugoDaniel/treeshaker/internal/test"
)

// ----------------------------------------------------------------------------
// Test Helpers
// ----------------------------------------------------------------------------

// fakeModule is a minimal ModuleContext for building trees by hand.
type fakeModule struct {
	id          string
	execIndex   int
	exports     map[string]Variable
	exportNames []string
	reexports   []string
	imports     map[string]Variable
	synthetic   string
	passes      int
	includedAll int
	warnings    []string
	tracker     *objpath.Tracker
}

func newFakeModule(id string) *fakeModule {
	return &fakeModule{
		id:      id,
		exports: make(map[string]Variable),
		imports: make(map[string]Variable),
		tracker: objpath.NewTracker(),
	}
}

func (m *fakeModule) export(name string, v Variable) {
	m.exports[name] = v
	m.exportNames = append(m.exportNames, name)
}

func (m *fakeModule) ID() string { return m.id }
func (m *fakeModule) ExecIndex() int { return m.execIndex }
func (m *fakeModule) ModuleName() string { return SafeIdentifier(m.id) }
func (m *fakeModule) Exports() []string { return m.exportNames }
func (m *fakeModule) Reexports() []string { return m.reexports }
func (m *fakeModule) TraceExport(n string) Variable { return m.exports[n] }
func (m *fakeModule) IncludeAllExports() { m.includedAll++ }
func (m *fakeModule) RequestTreeshakingPass() { m.passes++ }
func (m *fakeModule) Tracker() *objpath.Tracker { return m.tracker }
func (m *fakeModule) Options() *Options { return DefaultOptions() }
func (m *fakeModule) SyntheticNamedExports() string { return m.synthetic }

func (m *fakeModule) TraceImport(name string) (Variable, bool) {
	v, ok := m.imports[name]
	return v, ok
}

func (m *fakeModule) IncludeVariable(v Variable) {
	if !v.Included() {
		v.Include()
		m.passes++
	}
}

func (m *fakeModule) Warn(code string, _ string, _ int) {
	m.warnings = append(m.warnings, code)
}

// spy counts cache invalidations.
type spy struct {
	calls int
}

func (s *spy) DeoptimizeCache() { s.calls++ }

// countingLiteral counts literal-value queries.
type countingLiteral struct {
	*Literal
	queries int
}

func (c *countingLiteral) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	c.queries++
	return c.Literal.LiteralValueAt(path, tracker, origin)
}

func lit(value LiteralValue, ctx ModuleContext) *Literal {
	return &Literal{NodeBase: NodeBase{Ctx: ctx}, Value: value}
}

func ref(v Variable, ctx ModuleContext) *Identifier {
	return &Identifier{NodeBase: NodeBase{Ctx: ctx}, Name: v.Name(), Variable: v}
}

// letBinding declares `let name = init` and returns the variable.
func letBinding(name string, init Node, ctx ModuleContext) *LocalVariable {
	id := &Identifier{NodeBase: NodeBase{Ctx: ctx}, Name: name}
	decl := &VariableDeclarator{NodeBase: NodeBase{Ctx: ctx}, ID: id, Init: init}
	SetParents(decl)
	v := NewLocalVariable(name, KindLet, id, init, ctx)
	id.Variable = v
	return v
}

// ----------------------------------------------------------------------------
// Literal Values
// ----------------------------------------------------------------------------

func TestTruthiness(t *testing.T) {
	tests := []struct {
		value  LiteralValue
		truthy bool
		known  bool
	}{
		{UnknownValue, false, false},
		{UnknownTruthyValue, true, true},
		{UndefinedValue, false, true},
		{NullValue, false, true},
		{BoolValue(true), true, true},
		{NumberValue(0), false, true},
		{NumberValue(2), true, true},
		{StringValue(""), false, true},
		{StringValue("x"), true, true},
	}
	for _, tt := range tests {
		truthy, known := tt.value.Truthiness()
		if truthy != tt.truthy || known != tt.known {
			t.Errorf("%s: got (%v, %v), want (%v, %v)", tt.value.Format(), truthy, known, tt.truthy, tt.known)
		}
	}
}

func TestFoldBinary(t *testing.T) {
	tests := []struct {
		op       string
		left     LiteralValue
		right    LiteralValue
		expected LiteralValue
	}{
		{"+", NumberValue(1), NumberValue(2), NumberValue(3)},
		{"+", StringValue("a"), NumberValue(1), StringValue("a1")},
		{"-", StringValue("5"), NumberValue(2), NumberValue(3)},
		{"===", NumberValue(1), StringValue("1"), BoolValue(false)},
		{"==", NumberValue(1), StringValue("1"), BoolValue(true)},
		{"==", NullValue, UndefinedValue, BoolValue(true)},
		{"!==", BoolValue(true), BoolValue(true), BoolValue(false)},
		{"<", StringValue("a"), StringValue("b"), BoolValue(true)},
		{">=", NumberValue(1), UndefinedValue, BoolValue(false)},
		{"%", NumberValue(7), NumberValue(4), NumberValue(3)},
	}
	for _, tt := range tests {
		got := FoldBinary(tt.op, tt.left, tt.right)
		if got != tt.expected {
			t.Errorf("%s %s %s = %s, want %s", tt.left.Format(), tt.op, tt.right.Format(), got.Format(), tt.expected.Format())
		}
	}
}

func TestParseNumber(t *testing.T) {
	test.AssertEqual(t, ParseNumber("0xff"), 255.0)
	test.AssertEqual(t, ParseNumber("1_000"), 1000.0)
	test.AssertEqual(t, ParseNumber(""), 0.0)
	if n := ParseNumber("abc"); !math.IsNaN(n) {
		t.Errorf("expected NaN, got %v", n)
	}
}

// ----------------------------------------------------------------------------
// Conditional Expression
// ----------------------------------------------------------------------------

func TestConditionalWithKnownTestKeepsOnlyUsedBranch(t *testing.T) {
	m := newFakeModule("main.js")
	cond := &ConditionalExpression{
		NodeBase:   NodeBase{Ctx: m},
		Test:       lit(BoolValue(true), m),
		Consequent: lit(StringValue("yes"), m),
		Alternate:  lit(StringValue("no"), m),
	}
	SetParents(cond)

	test.AssertEqual(t, cond.State(), BranchConsequent)
	cond.Include(NewInclusionContext(), false)

	if cond.Test.Included() {
		t.Error("test without effects should not be included")
	}
	if !cond.Consequent.Included() {
		t.Error("used branch should be included")
	}
	if cond.Alternate.Included() {
		t.Error("unused branch should not be included")
	}
	value := cond.LiteralValueAt(objpath.EmptyPath, m.tracker, nil)
	test.AssertEqual(t, value, StringValue("yes"))
}

func TestConditionalWithUnknownTestIncludesEverything(t *testing.T) {
	m := newFakeModule("main.js")
	cond := &ConditionalExpression{
		NodeBase:   NodeBase{Ctx: m},
		Test:       ref(NewGlobalVariable("flag", nil), m),
		Consequent: lit(NumberValue(1), m),
		Alternate:  lit(NumberValue(2), m),
	}
	test.AssertEqual(t, cond.State(), BranchUnknown)
	if cond.UsedBranch() != nil {
		t.Error("unknown test must not resolve a branch")
	}
	cond.Include(NewInclusionContext(), false)
	if !cond.Test.Included() || !cond.Consequent.Included() || !cond.Alternate.Included() {
		t.Error("all children should be included when the test is unknown")
	}
	test.AssertEqual(t, cond.LiteralValueAt(objpath.EmptyPath, m.tracker, nil), UnknownValue)
}

func TestConditionalInvalidatedByReassignment(t *testing.T) {
	m := newFakeModule("main.js")
	flag := letBinding("flag", lit(BoolValue(true), m), m)
	alternate := &ObjectExpression{NodeBase: NodeBase{Ctx: m}}
	cond := &ConditionalExpression{
		NodeBase:   NodeBase{Ctx: m},
		Test:       ref(flag, m),
		Consequent: lit(StringValue("on"), m),
		Alternate:  alternate,
	}
	consumer := &spy{}

	test.AssertEqual(t, cond.LiteralValueAt(objpath.EmptyPath, m.tracker, consumer), StringValue("on"))
	test.AssertEqual(t, cond.State(), BranchConsequent)

	passes := m.passes
	flag.DeoptimizePath(objpath.EmptyPath)

	test.AssertEqual(t, cond.State(), BranchUnknown)
	test.AssertEqual(t, consumer.calls, 1)
	if !alternate.deoptimizedAll {
		t.Error("the previously unused branch should be deoptimized at the unknown path")
	}
	if m.passes <= passes {
		t.Error("invalidation should request another pass")
	}

	cond.Include(NewInclusionContext(), false)
	if !cond.Alternate.Included() {
		t.Error("alternate must be included once the test is unknown")
	}
}

func TestConditionalResolutionRunsOnce(t *testing.T) {
	m := newFakeModule("main.js")
	testNode := &countingLiteral{Literal: lit(BoolValue(false), m)}
	cond := &ConditionalExpression{
		NodeBase:   NodeBase{Ctx: m},
		Test:       testNode,
		Consequent: lit(NumberValue(1), m),
		Alternate:  lit(NumberValue(2), m),
	}
	for i := 0; i < 3; i++ {
		cond.LiteralValueAt(objpath.EmptyPath, m.tracker, nil)
		cond.HasEffects(NewHasEffectsContext())
	}
	test.AssertEqual(t, testNode.queries, 1)
	test.AssertEqual(t, cond.UsedBranch(), Node(cond.Alternate))
}

func TestConditionalDeoptimizeCacheIsIdempotent(t *testing.T) {
	m := newFakeModule("main.js")
	cond := &ConditionalExpression{
		NodeBase:   NodeBase{Ctx: m},
		Test:       lit(BoolValue(true), m),
		Consequent: lit(NumberValue(1), m),
		Alternate:  lit(NumberValue(2), m),
	}
	consumer := &spy{}
	cond.LiteralValueAt(objpath.EmptyPath, m.tracker, consumer)

	cond.DeoptimizeCache()
	cond.DeoptimizeCache()

	test.AssertEqual(t, consumer.calls, 1)
	test.AssertEqual(t, cond.State(), BranchUnknown)
}

func TestConditionalEffectsFollowUsedBranch(t *testing.T) {
	m := newFakeModule("main.js")
	call := func() Node {
		return &CallExpression{NodeBase: NodeBase{Ctx: m}, Callee: ref(NewGlobalVariable("sideEffect", nil), m)}
	}
	pure := &ConditionalExpression{
		NodeBase:   NodeBase{Ctx: m},
		Test:       lit(BoolValue(false), m),
		Consequent: call(),
		Alternate:  lit(NumberValue(0), m),
	}
	if pure.HasEffects(NewHasEffectsContext()) {
		t.Error("effects of the unused branch should be ignored")
	}
	impure := &ConditionalExpression{
		NodeBase:   NodeBase{Ctx: m},
		Test:       lit(BoolValue(true), m),
		Consequent: call(),
		Alternate:  lit(NumberValue(0), m),
	}
	if !impure.HasEffects(NewHasEffectsContext()) {
		t.Error("effects of the used branch should be reported")
	}
}

// ----------------------------------------------------------------------------
// Logical Expression
// ----------------------------------------------------------------------------

func TestLogicalExpressionBranches(t *testing.T) {
	m := newFakeModule("main.js")
	tests := []struct {
		op       string
		left     LiteralValue
		expected BranchState
	}{
		{"&&", BoolValue(false), BranchConsequent},
		{"&&", BoolValue(true), BranchAlternate},
		{"||", StringValue("x"), BranchConsequent},
		{"||", NumberValue(0), BranchAlternate},
		{"??", NullValue, BranchAlternate},
		{"??", NumberValue(0), BranchConsequent},
		{"??", UnknownTruthyValue, BranchUnknown},
	}
	for _, tt := range tests {
		l := &LogicalExpression{
			NodeBase: NodeBase{Ctx: m},
			Operator: tt.op,
			Left:     lit(tt.left, m),
			Right:    lit(StringValue("right"), m),
		}
		if got := l.State(); got != tt.expected {
			t.Errorf("%s %s right: got %v, want %v", tt.left.Format(), tt.op, got, tt.expected)
		}
	}
}

func TestLogicalExpressionInvalidation(t *testing.T) {
	m := newFakeModule("main.js")
	enabled := letBinding("enabled", lit(BoolValue(false), m), m)
	l := &LogicalExpression{
		NodeBase: NodeBase{Ctx: m},
		Operator: "&&",
		Left:     ref(enabled, m),
		Right:    lit(StringValue("feature"), m),
	}
	test.AssertEqual(t, l.UsedBranch(), Node(l.Left))
	enabled.DeoptimizePath(objpath.EmptyPath)
	test.AssertEqual(t, l.State(), BranchUnknown)
}

// ----------------------------------------------------------------------------
// Variables
// ----------------------------------------------------------------------------

func TestReassignmentNotifiesEveryDependentOnce(t *testing.T) {
	m := newFakeModule("main.js")
	v := letBinding("x", lit(NumberValue(1), m), m)
	a, b := &spy{}, &spy{}
	v.LiteralValueAt(objpath.EmptyPath, m.tracker, a)
	v.LiteralValueAt(objpath.EmptyPath, m.tracker, a)
	v.LiteralValueAt(objpath.EmptyPath, m.tracker, b)

	v.DeoptimizePath(objpath.EmptyPath)
	v.DeoptimizePath(objpath.EmptyPath)

	test.AssertEqual(t, a.calls, 1)
	test.AssertEqual(t, b.calls, 1)
	test.AssertEqual(t, v.IsReassigned(), true)
	test.AssertEqual(t, v.DependentCount(), 0)
	test.AssertEqual(t, v.LiteralValueAt(objpath.EmptyPath, m.tracker, nil), UnknownValue)
}

func TestCyclicInitializersTerminate(t *testing.T) {
	m := newFakeModule("main.js")
	aID := &Identifier{NodeBase: NodeBase{Ctx: m}, Name: "a"}
	bID := &Identifier{NodeBase: NodeBase{Ctx: m}, Name: "b"}
	a := NewLocalVariable("a", KindConst, aID, nil, m)
	b := NewLocalVariable("b", KindConst, bID, nil, m)
	a.Init = ref(b, m)
	b.Init = ref(a, m)

	test.AssertEqual(t, a.LiteralValueAt(objpath.EmptyPath, m.tracker, nil), UnknownValue)
	released := objpath.WithTracking(m.tracker, a, objpath.EmptyPath, func() bool { return true }, false)
	test.AssertEqual(t, released, true)
	if a.HasEffectsOnInteractionAt(objpath.Path{"x"}, UnknownAccess, NewHasEffectsContext()) {
		t.Error("cyclic property read should terminate without effects")
	}
}

func TestIncludingVariableMarksDeclaration(t *testing.T) {
	m := newFakeModule("main.js")
	v := letBinding("x", lit(NumberValue(1), m), m)
	v.Include()
	decl := v.Declarations[0]
	if !decl.Included() || !decl.Parent().Included() {
		t.Error("declaration and declarator should be marked included")
	}
}

func TestAssignmentToIncludedVariableHasEffects(t *testing.T) {
	m := newFakeModule("main.js")
	v := letBinding("x", lit(NumberValue(1), m), m)
	if v.HasEffectsOnInteractionAt(objpath.EmptyPath, UnknownAssignment, NewHasEffectsContext()) {
		t.Error("assigning an unused variable should have no effect")
	}
	v.Include()
	if !v.HasEffectsOnInteractionAt(objpath.EmptyPath, UnknownAssignment, NewHasEffectsContext()) {
		t.Error("assigning an included variable should have an effect")
	}
}

func TestGlobalVariableEffects(t *testing.T) {
	math := NewGlobalVariable("Math", nil)
	if math.HasEffectsOnInteractionAt(objpath.EmptyPath, UnknownAccess, NewHasEffectsContext()) {
		t.Error("reading a known global should be pure")
	}
	if math.HasEffectsOnInteractionAt(objpath.Path{"max"}, NewCall(math, nil, false), NewHasEffectsContext()) {
		t.Error("Math.max should be a pure call")
	}
	unknown := NewGlobalVariable("somethingElse", nil)
	if !unknown.HasEffectsOnInteractionAt(objpath.EmptyPath, UnknownAccess, NewHasEffectsContext()) {
		t.Error("reading an unknown global may throw")
	}
	relaxed := NewGlobalVariable("somethingElse", &Options{})
	if relaxed.HasEffectsOnInteractionAt(objpath.EmptyPath, UnknownAccess, NewHasEffectsContext()) {
		t.Error("unknown global reads should be pure when the option is off")
	}
	test.AssertEqual(t, NewGlobalVariable("undefined", nil).LiteralValueAt(objpath.EmptyPath, nil, nil), UndefinedValue)
}

// ----------------------------------------------------------------------------
// Objects and Functions
// ----------------------------------------------------------------------------

func TestObjectPerKeyInvalidation(t *testing.T) {
	m := newFakeModule("main.js")
	obj := &ObjectExpression{NodeBase: NodeBase{Ctx: m}, Properties: []*Property{
		{NodeBase: NodeBase{Ctx: m}, Key: "a", Value: lit(NumberValue(1), m)},
		{NodeBase: NodeBase{Ctx: m}, Key: "b", Value: lit(NumberValue(2), m)},
	}}
	onA, onB := &spy{}, &spy{}
	test.AssertEqual(t, obj.LiteralValueAt(objpath.Path{"a"}, m.tracker, onA), NumberValue(1))
	test.AssertEqual(t, obj.LiteralValueAt(objpath.Path{"b"}, m.tracker, onB), NumberValue(2))

	obj.DeoptimizePath(objpath.Path{"a"})
	test.AssertEqual(t, onA.calls, 1)
	test.AssertEqual(t, onB.calls, 0)
	test.AssertEqual(t, obj.LiteralValueAt(objpath.Path{"a"}, m.tracker, nil), UnknownValue)
	test.AssertEqual(t, obj.LiteralValueAt(objpath.Path{"b"}, m.tracker, nil), NumberValue(2))

	obj.DeoptimizePath(objpath.UnknownPath)
	test.AssertEqual(t, onB.calls, 1)
	test.AssertEqual(t, obj.LiteralValueAt(objpath.Path{"b"}, m.tracker, nil), UnknownValue)
}

func TestFunctionReturnExpressions(t *testing.T) {
	m := newFakeModule("main.js")
	one := lit(NumberValue(1), m)
	ret := &ReturnStatement{NodeBase: NodeBase{Ctx: m}, Argument: one}
	fn := &Function{
		NodeBase: NodeBase{Ctx: m},
		Kind:     FunctionExpression,
		Body:     &BlockStatement{NodeBase: NodeBase{Ctx: m}, Body: []Node{ret}},
		Returns:  []*ReturnStatement{ret},
	}
	e, _ := fn.ReturnExpressionWhenCalledAt(objpath.EmptyPath, UnknownCall, m.tracker, nil)
	test.AssertEqual(t, e, Entity(one))

	if fn.HasEffectsOnInteractionAt(objpath.EmptyPath, NewCall(nil, nil, false), NewHasEffectsContext()) {
		t.Error("calling a function that only returns a literal should be pure")
	}

	empty := &Function{
		NodeBase: NodeBase{Ctx: m},
		Kind:     FunctionExpression,
		Body:     &BlockStatement{NodeBase: NodeBase{Ctx: m}},
	}
	e, _ = empty.ReturnExpressionWhenCalledAt(objpath.EmptyPath, UnknownCall, m.tracker, nil)
	test.AssertEqual(t, e.LiteralValueAt(objpath.EmptyPath, m.tracker, nil), UndefinedValue)
}

func TestCallResultFollowsCallee(t *testing.T) {
	m := newFakeModule("main.js")
	ret := &ReturnStatement{NodeBase: NodeBase{Ctx: m}, Argument: lit(BoolValue(true), m)}
	fn := &Function{
		NodeBase: NodeBase{Ctx: m},
		Kind:     FunctionExpression,
		Body:     &BlockStatement{NodeBase: NodeBase{Ctx: m}, Body: []Node{ret}},
		Returns:  []*ReturnStatement{ret},
	}
	f := letBinding("f", fn, m)
	call := &CallExpression{NodeBase: NodeBase{Ctx: m}, Callee: ref(f, m)}
	consumer := &spy{}

	test.AssertEqual(t, call.LiteralValueAt(objpath.EmptyPath, m.tracker, consumer), BoolValue(true))
	f.DeoptimizePath(objpath.EmptyPath)
	test.AssertEqual(t, consumer.calls, 1)
	test.AssertEqual(t, call.LiteralValueAt(objpath.EmptyPath, m.tracker, nil), UnknownValue)
}

// ----------------------------------------------------------------------------
// Namespaces
// ----------------------------------------------------------------------------

func TestNamespaceMemberVariables(t *testing.T) {
	m := newFakeModule("lib.js")
	a := letBinding("a", lit(NumberValue(1), m), m)
	b := letBinding("b", lit(NumberValue(2), m), m)
	m.export("a", a)
	m.export("__synthetic", b)
	m.reexports = []string{"*external", "b"}
	m.exports["b"] = b
	m.synthetic = "__synthetic"

	ns := NewNamespaceVariable(m)
	members := ns.MemberVariables()

	test.AssertDeepEqual(t, ns.MemberNames(), []string{"a", "b"})
	if members["a"] != Variable(a) || members["b"] != Variable(b) {
		t.Error("members should map to the exported variables")
	}
	if _, ok := members["*external"]; ok {
		t.Error("external wildcard markers are not members")
	}
	m.exports["late"] = a
	m.exportNames = append(m.exportNames, "late")
	if _, ok := ns.MemberVariables()["late"]; ok {
		t.Error("member variables should be memoized")
	}
}

func TestNamespaceEffects(t *testing.T) {
	m := newFakeModule("lib.js")
	m.export("value", letBinding("value", lit(NumberValue(1), m), m))
	ns := NewNamespaceVariable(m)
	ctx := NewHasEffectsContext()

	tests := []struct {
		name        string
		path        objpath.Path
		interaction *Interaction
		expected    bool
	}{
		{"whole namespace", objpath.EmptyPath, UnknownAccess, true},
		{"read member", objpath.Path{"value"}, UnknownAccess, false},
		{"write member", objpath.Path{"value"}, UnknownAssignment, true},
		{"missing member deep read", objpath.Path{"missing", "x"}, UnknownAccess, true},
		{"unknown key call", objpath.UnknownPath, UnknownCall, true},
	}
	for _, tt := range tests {
		if got := ns.HasEffectsOnInteractionAt(tt.path, tt.interaction, ctx); got != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestNamespaceToStringTag(t *testing.T) {
	ns := NewNamespaceVariable(newFakeModule("lib.js"))
	test.AssertEqual(t, ns.LiteralValueAt(objpath.Path{objpath.ToStringTagKey}, nil, nil), StringValue("Module"))
	test.AssertEqual(t, ns.LiteralValueAt(objpath.Path{"x"}, nil, nil), UnknownValue)
}

func TestNamespaceReferencesAndMerging(t *testing.T) {
	lib := newFakeModule("lib.js")
	lib.execIndex = 1
	ns := NewNamespaceVariable(lib)
	test.AssertEqual(t, ns.Name(), "lib")

	later := newFakeModule("main.js")
	later.execIndex = 2
	ns.AddReference(&Identifier{NodeBase: NodeBase{Ctx: later}, Name: "utils"})
	test.AssertEqual(t, ns.Name(), "utils")

	ns.SetMergedNamespaces(nil)
	test.AssertEqual(t, ns.RenderFirst(), false)

	earlier := newFakeModule("setup.js")
	ns.AddReference(&Identifier{NodeBase: NodeBase{Ctx: earlier}, Name: "lib"})
	external := NewExternalVariable("ext", "*")
	ns.SetMergedNamespaces([]Variable{external})
	test.AssertEqual(t, ns.RenderFirst(), true)
	test.AssertEqual(t, len(ns.MergedNamespaces()), 1)
}

func TestNamespaceIncludeIncludesAllExports(t *testing.T) {
	m := newFakeModule("lib.js")
	ns := NewNamespaceVariable(m)
	ns.Include()
	ns.Include()
	test.AssertEqual(t, m.includedAll, 1)
}

func TestMemberExpressionBindsNamespaceMember(t *testing.T) {
	lib := newFakeModule("lib.js")
	value := letBinding("value", lit(NumberValue(42), lib), lib)
	lib.export("value", value)
	ns := NewNamespaceVariable(lib)

	main := newFakeModule("main.js")
	found := &MemberExpression{NodeBase: NodeBase{Ctx: main}, Object: ref(ns, main), Property: "value"}
	missing := &MemberExpression{NodeBase: NodeBase{Ctx: main}, Object: ref(ns, main), Property: "nope"}
	Bind(found)
	Bind(missing)

	test.AssertEqual(t, found.Variable, Variable(value))
	test.AssertEqual(t, found.LiteralValueAt(objpath.EmptyPath, main.tracker, nil), NumberValue(42))
	test.AssertEqual(t, missing.Missing, true)
	test.AssertDeepEqual(t, main.warnings, []string{"MISSING_EXPORT"})

	found.Include(NewInclusionContext(), false)
	if !value.Included() {
		t.Error("the member variable should be included")
	}
	if ns.Included() {
		t.Error("reading one member must not include the namespace")
	}
}

// ----------------------------------------------------------------------------
// Scopes
// ----------------------------------------------------------------------------

func TestClassScopes(t *testing.T) {
	m := newFakeModule("main.js")
	global := NewGlobalScope(DefaultOptions())
	module := NewModuleScope(global, m)
	class := &Class{NodeBase: NodeBase{Ctx: m}}
	body := NewClassBodyScope(module, class)

	static, ok := body.FindVariable("this").(*LocalVariable)
	if !ok {
		t.Fatal("static this should be a local variable")
	}
	test.AssertEqual(t, static.Init, Node(class))

	if _, ok := body.InstanceScope.FindVariable("this").(*ThisVariable); !ok {
		t.Error("instance this should be a this variable")
	}
	test.AssertEqual(t, body.InstanceScope.Parent, body)
	if module.FindVariable("this") != nil {
		t.Error("module-level this should not resolve")
	}
}

func TestScopeLookup(t *testing.T) {
	m := newFakeModule("main.js")
	imported := letBinding("dep", lit(NumberValue(1), m), m)
	m.imports["dep"] = imported

	global := NewGlobalScope(DefaultOptions())
	module := NewModuleScope(global, m)
	fn := NewFunctionScope(module, false)
	block := NewChildScope(fn, ScopeBlock)

	local := block.AddDeclaration(&Identifier{Name: "x"}, KindLet, nil)
	test.AssertEqual(t, block.FindVariable("x"), Variable(local))
	test.AssertEqual(t, block.FindVariable("dep"), Variable(imported))
	test.AssertEqual(t, block.HoistScope(), fn)

	g, ok := block.FindVariable("console").(*GlobalVariable)
	if !ok {
		t.Fatal("undeclared names should resolve to globals")
	}
	test.AssertEqual(t, global.FindVariable("console"), Variable(g))
	if module.Contains("x") {
		t.Error("module scope should not contain block declarations")
	}
}

func TestSafeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"./lib/utils.js", "utils"},
		{"my-lib", "myLib"},
		{"123.js", "_123"},
		{"class", "_class"},
		{"", "_"},
	}
	for _, tt := range tests {
		test.AssertEqual(t, SafeIdentifier(tt.input), tt.expected)
	}
}

// receiverWrite builds `function F() { this.x = 1; }` and returns the
// function and its single statement.
func receiverWrite(m *fakeModule) (*Function, *ExpressionStatement) {
	module := NewModuleScope(NewGlobalScope(DefaultOptions()), m)
	fn := &Function{NodeBase: NodeBase{Ctx: m}, Kind: FunctionDeclaration, Scope: NewFunctionScope(module, false)}
	this := &ThisExpression{NodeBase: NodeBase{Ctx: m}, Scope: fn.Scope}
	this.bind()
	stmt := &ExpressionStatement{NodeBase: NodeBase{Ctx: m}, Expression: &AssignmentExpression{
		NodeBase: NodeBase{Ctx: m},
		Operator: "=",
		Left:     &MemberExpression{NodeBase: NodeBase{Ctx: m}, Object: this, Property: "x"},
		Right:    lit(NumberValue(1), m),
	}}
	fn.Body = &BlockStatement{NodeBase: NodeBase{Ctx: m}, Body: []Node{stmt}, Scope: fn.Scope}
	SetParents(fn)
	return fn, stmt
}

func TestReceiverWritesOutsideCallsHaveEffects(t *testing.T) {
	_, stmt := receiverWrite(newFakeModule("main.js"))
	if !stmt.HasEffects(NewHasEffectsContext()) {
		t.Error("writing through an unknown receiver should have effects")
	}
}

func TestReceiverWritesDependOnTheCall(t *testing.T) {
	fn, stmt := receiverWrite(newFakeModule("main.js"))
	ctx := NewHasEffectsContext()

	if fn.HasEffectsOnInteractionAt(objpath.EmptyPath, NewCall(nil, nil, true), ctx) {
		t.Error("new F() only writes to the object under construction")
	}
	if !fn.HasEffectsOnInteractionAt(objpath.EmptyPath, NewCall(nil, nil, false), ctx) {
		t.Error("F() writes to an undefined receiver")
	}
	if !stmt.HasEffects(ctx) {
		t.Error("the receiver should be unbound again after the call")
	}
}

func TestClassConstructorReceiver(t *testing.T) {
	m := newFakeModule("main.js")
	fn, stmt := receiverWrite(m)
	fn.Kind = FunctionMethod
	class := &Class{NodeBase: NodeBase{Ctx: m}}
	class.Scope = NewClassBodyScope(NewModuleScope(NewGlobalScope(DefaultOptions()), m), class)
	class.Members = []*ClassMember{{NodeBase: NodeBase{Ctx: m}, Kind: MemberConstructor, Key: "constructor", Value: fn}}
	SetParents(class)

	if class.HasEffectsOnInteractionAt(objpath.EmptyPath, NewCall(nil, nil, true), NewHasEffectsContext()) {
		t.Error("a constructor writing to this should be pure")
	}
	if !stmt.HasEffects(NewHasEffectsContext()) {
		t.Error("the constructor body on its own should keep the write")
	}
}

// deoptRecorder records the paths it is deoptimized at.
type deoptRecorder struct {
	*Literal
	paths []string
}

func (d *deoptRecorder) DeoptimizePath(path objpath.Path) {
	d.paths = append(d.paths, path.String())
}

func TestWildcardDeoptimizationCoversLongerPaths(t *testing.T) {
	m := newFakeModule("main.js")
	init := &deoptRecorder{Literal: lit(UnknownTruthyValue, m)}
	v := NewLocalVariable("o", KindConst, nil, init, m)

	v.DeoptimizePath(objpath.Path{"a"})
	v.DeoptimizePath(objpath.Path{"a", objpath.UnknownKey})
	v.DeoptimizePath(objpath.Path{"a", "b"})
	v.DeoptimizePath(objpath.UnknownPath)
	v.DeoptimizePath(objpath.Path{"c", "d"})

	test.AssertDeepEqual(t, init.paths, []string{"a", "a.?", "?"})
}
