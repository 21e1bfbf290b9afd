// Package nav is the screen stack: Home at the root, the two scanner
// screens above it, and Result on top.
package nav

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/model"
)

// Screen names a route.
type Screen string

const (
	Home         Screen = "Home"
	Scanner      Screen = "Scanner"
	LabelScanner Screen = "LabelScanner"
	Result       Screen = "Result"
)

// Title returns the header title shown for the screen.
func (s Screen) Title() string {
	switch s {
	case Home:
		return "Bite"
	case Scanner:
		return "Scan Barcode"
	case LabelScanner:
		return "Scan Label"
	case Result:
		return "Result"
	default:
		return string(s)
	}
}

// ResultParams is the only state handed from a scanner to the result screen.
type ResultParams struct {
	Title   string
	Payload *model.ScanResponse
}

// Route is one entry on the stack.
type Route struct {
	Screen Screen
	Params *ResultParams
}

type transition int

const (
	push transition = iota
	replace
)

func (t transition) String() string {
	if t == replace {
		return "replace"
	}
	return "push"
}

type hop struct {
	from, to Screen
	via      transition
}

// allowed lists every legal edge. Scanner screens reach Result by replace
// so that backing out of Result lands on Home.
var allowed = map[hop]bool{
	{Home, Scanner, push}:           true,
	{Home, LabelScanner, push}:      true,
	{Home, Result, push}:            true,
	{Scanner, Result, replace}:      true,
	{LabelScanner, Result, replace}: true,
}

// Navigator is the route stack.
type Navigator struct {
	mu    sync.Mutex
	stack []Route
	log   *zap.Logger
}

// NewNavigator creates a navigator sitting on Home.
func NewNavigator() *Navigator {
	return &Navigator{
		stack: []Route{{Screen: Home}},
		log:   zap.L().With(zap.String("component", "nav")),
	}
}

// Current returns the top route.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

// Depth returns the number of routes on the stack.
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stack)
}

// Push opens a screen on top of the current one.
func (n *Navigator) Push(s Screen, params *ResultParams) error {
	return n.move(s, params, push)
}

// Replace swaps the current screen for s.
func (n *Navigator) Replace(s Screen, params *ResultParams) error {
	return n.move(s, params, replace)
}

func (n *Navigator) move(s Screen, params *ResultParams, via transition) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	from := n.stack[len(n.stack)-1].Screen
	if !allowed[hop{from, s, via}] {
		return fmt.Errorf("nav: cannot %s %s from %s", via, s, from)
	}
	if s == Result && (params == nil || params.Payload == nil) {
		return fmt.Errorf("nav: %s requires a payload", s)
	}

	route := Route{Screen: s, Params: params}
	if via == replace {
		n.stack[len(n.stack)-1] = route
	} else {
		n.stack = append(n.stack, route)
	}
	n.log.Debug("navigate", zap.String("via", via.String()), zap.String("from", string(from)), zap.String("to", string(s)))
	return nil
}

// Pop goes back one screen. It returns false at Home.
func (n *Navigator) Pop() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stack) == 1 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}

// PopToHome unwinds the stack to Home.
func (n *Navigator) PopToHome() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack = n.stack[:1]
}
