// Package ir defines the typed intermediate representation between journey
// parsing and test rendering. Layer 1 is the Primitive union, layer 2 the
// Step/Journey model assembled from it.
package ir

import "strings"

// Strategy identifies how a locator resolves to an element. Resolution
// itself is a renderer concern.
type Strategy string

const (
	StrategyRole        Strategy = "role"
	StrategyLabel       Strategy = "label"
	StrategyPlaceholder Strategy = "placeholder"
	StrategyText        Strategy = "text"
	StrategyTestID      Strategy = "testid"
	StrategyCSS         Strategy = "css"
)

// LocatorOptions narrow a locator beyond its strategy value.
type LocatorOptions struct {
	Name  string `json:"name,omitempty"`
	Exact bool   `json:"exact,omitempty"`
	Level int    `json:"level,omitempty"`
}

// Locator is the abstract identity of a UI element.
type Locator struct {
	Strategy Strategy        `json:"strategy"`
	Value    string          `json:"value"`
	Options  *LocatorOptions `json:"options,omitempty"`
}

// ValueKind tags a Value with how its payload is interpreted.
type ValueKind string

const (
	ValueLiteral   ValueKind = "literal"
	ValueActor     ValueKind = "actor"
	ValueTestData  ValueKind = "testData"
	ValueGenerated ValueKind = "generated"
	ValueRunID     ValueKind = "runId"
)

// Value is a fill/select payload. Interpretation of the non-literal kinds
// is deferred to the renderer.
type Value struct {
	Kind  ValueKind `json:"type"`
	Value string    `json:"value,omitempty"`
}

// PrimitiveType enumerates the closed set of IR actions and assertions.
type PrimitiveType string

const (
	// Navigation
	TypeGoto       PrimitiveType = "goto"
	TypeReload     PrimitiveType = "reload"
	TypeGoBack     PrimitiveType = "goBack"
	TypeGoForward  PrimitiveType = "goForward"
	TypeWaitForURL PrimitiveType = "waitForURL"

	// Interaction
	TypeClick      PrimitiveType = "click"
	TypeDblClick   PrimitiveType = "dblclick"
	TypeRightClick PrimitiveType = "rightClick"
	TypeFill       PrimitiveType = "fill"
	TypeSelect     PrimitiveType = "select"
	TypeCheck      PrimitiveType = "check"
	TypeUncheck    PrimitiveType = "uncheck"
	TypePress      PrimitiveType = "press"
	TypeHover      PrimitiveType = "hover"
	TypeFocus      PrimitiveType = "focus"
	TypeClear      PrimitiveType = "clear"
	TypeUpload     PrimitiveType = "upload"

	// Assertions
	TypeExpectVisible  PrimitiveType = "expectVisible"
	TypeExpectHidden   PrimitiveType = "expectHidden"
	TypeExpectText     PrimitiveType = "expectText"
	TypeExpectValue    PrimitiveType = "expectValue"
	TypeExpectChecked  PrimitiveType = "expectChecked"
	TypeExpectEnabled  PrimitiveType = "expectEnabled"
	TypeExpectDisabled PrimitiveType = "expectDisabled"
	TypeExpectURL      PrimitiveType = "expectURL"
	TypeExpectTitle    PrimitiveType = "expectTitle"
	TypeExpectCount    PrimitiveType = "expectCount"
	TypeExpectToast    PrimitiveType = "expectToast"

	// Waits
	TypeWaitForVisible         PrimitiveType = "waitForVisible"
	TypeWaitForHidden          PrimitiveType = "waitForHidden"
	TypeWaitForTimeout         PrimitiveType = "waitForTimeout"
	TypeWaitForNetworkIdle     PrimitiveType = "waitForNetworkIdle"
	TypeWaitForLoadingComplete PrimitiveType = "waitForLoadingComplete"
	TypeWaitForResponse        PrimitiveType = "waitForResponse"

	// Dialogs
	TypeDismissModal PrimitiveType = "dismissModal"
	TypeAcceptAlert  PrimitiveType = "acceptAlert"
	TypeDismissAlert PrimitiveType = "dismissAlert"

	// Indirection
	TypeCallModule PrimitiveType = "callModule"

	// Failure
	TypeBlocked PrimitiveType = "blocked"
)

// IsAssertion reports whether a primitive type lives in the expect*
// namespace. The compiler partitions actions from assertions on this.
func (t PrimitiveType) IsAssertion() bool {
	return strings.HasPrefix(string(t), "expect")
}

// Primitive is one atomic UI action or assertion. Type fully determines
// which of the optional fields are meaningful.
type Primitive struct {
	Type    PrimitiveType `json:"type"`
	Locator *Locator      `json:"locator,omitempty"`
	Value   *Value        `json:"value,omitempty"`

	URL     string `json:"url,omitempty"`     // goto, waitForURL, expectURL, waitForResponse
	Exact   bool   `json:"exact,omitempty"`   // expectURL, expectTitle
	Key     string `json:"key,omitempty"`     // press
	Text    string `json:"text,omitempty"`    // expectText, expectTitle, expectToast
	Count   int    `json:"count,omitempty"`   // expectCount
	Timeout int    `json:"timeout,omitempty"` // waitForTimeout, in milliseconds
	Path    string `json:"path,omitempty"`    // upload

	Severity string `json:"severity,omitempty"` // expectToast: success, error, warning
	Module   string `json:"module,omitempty"`   // callModule
	Method   string `json:"method,omitempty"`   // callModule

	Reason     string `json:"reason,omitempty"`     // blocked
	SourceText string `json:"sourceText,omitempty"` // blocked
}

// Blocked builds the failure primitive for a step that matched nothing.
func Blocked(sourceText, reason string) Primitive {
	return Primitive{Type: TypeBlocked, Reason: reason, SourceText: sourceText}
}

// Step is the compiled form of one acceptance criterion or procedural step.
type Step struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Actions     []Primitive `json:"actions"`
	Assertions  []Primitive `json:"assertions"`
	SourceText  string      `json:"sourceText,omitempty"`
	Notes       []string    `json:"notes,omitempty"`
}

// ModuleDependencies lists the page-object modules a journey relies on.
type ModuleDependencies struct {
	Foundation []string `json:"foundation"`
	Feature    []string `json:"feature"`
}

// DataSpec describes test-data strategy for a journey.
type DataSpec struct {
	Strategy string `json:"strategy,omitempty"`
	Cleanup  string `json:"cleanup,omitempty"`
}

// CompletionSignal declares how a journey's success is observed. The
// compiler converts these into terminal assertions.
type CompletionSignal struct {
	Type    string            `json:"type"` // url, title, toast, element
	Value   string            `json:"value"`
	Options map[string]string `json:"options,omitempty"`
}

// Journey is the full compiled model of one journey document. It is built
// once per parse and rebuilt wholesale on re-parse, never mutated in place.
type Journey struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Tier               string             `json:"tier"`
	Scope              string             `json:"scope"`
	Actor              string             `json:"actor"`
	Tags               []string           `json:"tags"`
	ModuleDependencies ModuleDependencies `json:"moduleDependencies"`
	Data               *DataSpec          `json:"data,omitempty"`
	Completion         []CompletionSignal `json:"completion,omitempty"`
	Steps              []Step             `json:"steps"`
	Revision           int                `json:"revision"`
	SourcePath         string             `json:"sourcePath"`
}
