package msg

type EventType int

const (
	_ EventType = iota
	EvOpen
	EvEmit
	EvJump
	EvCall
	EvReturn
	EvOpcode
	EvCase
	EvAnomaly
	EvEnd
)

func (et EventType) String() string {
	switch et {
	case EvOpen:
		return "Open"
	case EvEmit:
		return "Emit"
	case EvJump:
		return "Jump"
	case EvCall:
		return "Call"
	case EvReturn:
		return "Return"
	case EvOpcode:
		return "Opcode"
	case EvCase:
		return "Case"
	case EvAnomaly:
		return "Anomaly"
	case EvEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// Event is one step of an execution trace, consumed by the viewers.
type Event struct {
	Type  EventType
	Base  int // message base address
	Pos   int // offset at the time of the event
	Depth int // call stack depth
	Text  string
}
