package schema

// TriggerEvent is the DML verb a trigger fires on.
type TriggerEvent int

const (
	TriggerInsert TriggerEvent = iota
	TriggerUpdate
	TriggerDelete
)

// TriggerTiming is BEFORE or AFTER.
type TriggerTiming int

const (
	TriggerBefore TriggerTiming = iota
	TriggerAfter
)

// Trigger holds a trigger's identity and its body as raw SQL statement
// text. The body is deep-copied out of the parser's transient token
// buffers at CREATE TRIGGER time (spec §4.1 "view text is deep-copied
// because parser token buffers are transient" — the same rule applies to
// trigger bodies). The body is only stored: no code in this repository
// parses, compiles or runs it, so a trigger never fires.
type Trigger struct {
	Name    string
	Table   string
	Event   TriggerEvent
	Timing  TriggerTiming
	Body    []string
	ForEach bool // FOR EACH ROW vs statement-level
}
