package ir

import (
	"weft/internal/source"
)

// ID identifies a dynamic node inside one component compile ("s0", "s1", ...).
// Server markers and client lookups use the same value.
type ID string

// NodeKind enumerates IR node kinds.
type NodeKind uint8

const (
	// NodeElement is a DOM element; it may host bindings.
	NodeElement NodeKind = iota
	// NodeStaticText is literal text.
	NodeStaticText
	// NodeDynamicText is text bound to an expression.
	NodeDynamicText
	// NodeList renders an array through a keyed item template.
	NodeList
	// NodeConditional renders one of two branches.
	NodeConditional
	// NodeAttribute binds an attribute of its host element.
	NodeAttribute
	// NodeRef passes its host element to a callback once.
	NodeRef
	// NodeEvent attaches a DOM listener to its host element.
	NodeEvent
	// NodeComponent instantiates another component.
	NodeComponent
	// NodeFragment groups siblings without a wrapper element.
	NodeFragment
)

func (k NodeKind) String() string {
	switch k {
	case NodeElement:
		return "Element"
	case NodeStaticText:
		return "StaticText"
	case NodeDynamicText:
		return "DynamicText"
	case NodeList:
		return "List"
	case NodeConditional:
		return "Conditional"
	case NodeAttribute:
		return "Attribute"
	case NodeRef:
		return "Ref"
	case NodeEvent:
		return "Event"
	case NodeComponent:
		return "Component"
	case NodeFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Node is one IR node. Data holds the kind-specific payload.
type Node struct {
	Kind NodeKind
	Span source.Span
	Data NodeData
}

type NodeData interface {
	nodeData()
}

// StaticAttr is an attribute known at compile time. Bool attributes render
// without a value.
type StaticAttr struct {
	Name  string
	Value string
	Bool  bool
}

// Element is a DOM element. ID is empty unless the element hosts bindings,
// hosts unwrapped dynamic text, is a list container or is an element
// branch root of a conditional.
type Element struct {
	Tag         string
	ID          ID
	StaticAttrs []StaticAttr
	Bindings    []*Node // NodeAttribute, NodeRef, NodeEvent
	Children    []*Node
}

func (*Element) nodeData() {}

type StaticText struct {
	Text string
}

func (*StaticText) nodeData() {}

// DynamicText is text bound to Expr. When it is the sole child of its element
// it is not wrapped and ID equals the parent element's ID; otherwise it
// renders inside its own marker element.
type DynamicText struct {
	ID      ID
	Expr    string
	Wrapped bool
}

func (*DynamicText) nodeData() {}

// ItemEvent is an event binding found inside a list item template. It is
// delegated to the list container.
type ItemEvent struct {
	ID      ID // host element inside the item template
	Event   string
	Handler string
}

// ListBlock is `{arr.map((item, i) => <li .../>)}`. ID is the ID of the
// container element that holds the items.
type ListBlock struct {
	ID           ID
	ArrayExpr    string
	ItemParam    string
	IndexParam   string
	KeyExpr      string // empty: keyed by index
	ItemTemplate *Node  // always a NodeElement
	ItemEvents   []ItemEvent
}

func (*ListBlock) nodeData() {}

// ConditionalBlock is `{c ? a : b}` or `{c && a}`. A nil branch renders
// nothing. IsFragment selects comment-bounded branches; otherwise both
// branches are single elements whose root carries ID.
type ConditionalBlock struct {
	ID          ID
	CondExpr    string
	TrueBranch  *Node
	FalseBranch *Node
	IsFragment  bool
}

func (*ConditionalBlock) nodeData() {}

// SpreadAttr is the AttrName of `{...obj}` on an element.
const SpreadAttr = "..."

type AttributeBinding struct {
	ID       ID
	AttrName string
	Expr     string
}

func (*AttributeBinding) nodeData() {}

type RefCallback struct {
	ID   ID
	Expr string
}

func (*RefCallback) nodeData() {}

type EventBinding struct {
	ID      ID
	Event   string // DOM event name, lower case
	Handler string
}

func (*EventBinding) nodeData() {}

// PropArg is one `name={expr}` or `name="text"` passed to a component.
type PropArg struct {
	Name   string
	Expr   string
	Static bool // Expr is a JS string literal
	Spread bool // {...expr}
}

// ComponentCall instantiates another component. Record is filled by the
// body compiler from the resolver's name -> record map.
type ComponentCall struct {
	Name    string
	Props   []PropArg
	ChildID ID
	Record  *ComponentRecord
}

func (*ComponentCall) nodeData() {}

type Fragment struct {
	Children []*Node
}

func (*Fragment) nodeData() {}

// Constructors keep Kind and Data in sync.

func NewElement(sp source.Span, el *Element) *Node {
	return &Node{Kind: NodeElement, Span: sp, Data: el}
}

func NewStaticText(sp source.Span, text string) *Node {
	return &Node{Kind: NodeStaticText, Span: sp, Data: &StaticText{Text: text}}
}

func NewDynamicText(sp source.Span, id ID, expr string, wrapped bool) *Node {
	return &Node{Kind: NodeDynamicText, Span: sp, Data: &DynamicText{ID: id, Expr: expr, Wrapped: wrapped}}
}

func NewList(sp source.Span, l *ListBlock) *Node {
	return &Node{Kind: NodeList, Span: sp, Data: l}
}

func NewConditional(sp source.Span, c *ConditionalBlock) *Node {
	return &Node{Kind: NodeConditional, Span: sp, Data: c}
}

func NewAttribute(sp source.Span, id ID, name, expr string) *Node {
	return &Node{Kind: NodeAttribute, Span: sp, Data: &AttributeBinding{ID: id, AttrName: name, Expr: expr}}
}

func NewRef(sp source.Span, id ID, expr string) *Node {
	return &Node{Kind: NodeRef, Span: sp, Data: &RefCallback{ID: id, Expr: expr}}
}

func NewEvent(sp source.Span, id ID, event, handler string) *Node {
	return &Node{Kind: NodeEvent, Span: sp, Data: &EventBinding{ID: id, Event: event, Handler: handler}}
}

func NewComponent(sp source.Span, c *ComponentCall) *Node {
	return &Node{Kind: NodeComponent, Span: sp, Data: c}
}

func NewFragment(sp source.Span, children ...*Node) *Node {
	return &Node{Kind: NodeFragment, Span: sp, Data: &Fragment{Children: children}}
}

// Typed accessors. They return nil when the kind does not match.

func (n *Node) Element() *Element {
	if n == nil || n.Kind != NodeElement {
		return nil
	}
	el, _ := n.Data.(*Element)
	return el
}

func (n *Node) DynamicText() *DynamicText {
	if n == nil || n.Kind != NodeDynamicText {
		return nil
	}
	d, _ := n.Data.(*DynamicText)
	return d
}

func (n *Node) List() *ListBlock {
	if n == nil || n.Kind != NodeList {
		return nil
	}
	l, _ := n.Data.(*ListBlock)
	return l
}

func (n *Node) Conditional() *ConditionalBlock {
	if n == nil || n.Kind != NodeConditional {
		return nil
	}
	c, _ := n.Data.(*ConditionalBlock)
	return c
}

func (n *Node) Component() *ComponentCall {
	if n == nil || n.Kind != NodeComponent {
		return nil
	}
	c, _ := n.Data.(*ComponentCall)
	return c
}

func (n *Node) Fragment() *Fragment {
	if n == nil || n.Kind != NodeFragment {
		return nil
	}
	f, _ := n.Data.(*Fragment)
	return f
}

// IsSingleElement reports whether n renders exactly one element.
func (n *Node) IsSingleElement() bool {
	return n != nil && n.Kind == NodeElement
}

// DynamicID returns the ID a dynamic node is addressed by, or "".
func (n *Node) DynamicID() ID {
	if n == nil {
		return ""
	}
	switch d := n.Data.(type) {
	case *Element:
		return d.ID
	case *DynamicText:
		return d.ID
	case *ListBlock:
		return d.ID
	case *ConditionalBlock:
		return d.ID
	case *AttributeBinding:
		return d.ID
	case *RefCallback:
		return d.ID
	case *EventBinding:
		return d.ID
	case *ComponentCall:
		return d.ChildID
	}
	return ""
}
