package types

import "time"

type MarkShape string

const (
	MarkShapeCircle   MarkShape = "circle"
	MarkShapeSquare   MarkShape = "square"
	MarkShapeTriangle MarkShape = "triangle"
)

type MarkColor string

const (
	MarkColorRed    MarkColor = "red"
	MarkColorGreen  MarkColor = "green"
	MarkColorYellow MarkColor = "yellow"
	MarkColorOrange MarkColor = "orange"
)

// MarkCategory classifies what happened on the marked date.
type MarkCategory string

const (
	MarkCategoryEntry MarkCategory = "entry"
	MarkCategoryExit  MarkCategory = "exit"
	MarkCategoryNoOp  MarkCategory = "no_op"
)

// Mark annotates a simulated day with an execution or an ignored signal.
type Mark struct {
	Date     time.Time    `csv:"date" json:"date" yaml:"date"`
	Category MarkCategory `csv:"category" json:"category" yaml:"category"`
	Signal   Signal       `csv:"signal" json:"signal" yaml:"signal"`
	Color    MarkColor    `csv:"color" json:"color" yaml:"color"`
	Shape    MarkShape    `csv:"shape" json:"shape" yaml:"shape"`
	Title    string       `csv:"title" json:"title" yaml:"title"`
	Message  string       `csv:"message" json:"message" yaml:"message"`
}
