package messages

// Event identifies a message's position in the per-session event chain.
type Event string

const (
	EventPart        Event = "PART"
	EventAutoStop    Event = "AUTO_STOP"
	EventEndASR      Event = "END_ASR"
	EventEndClean    Event = "END_CLEAN"
	EventEndGrammar  Event = "END_GRAMMAR"
	EventPreviewTone Event = "PREVIEW_TONE"
	EventEndTone     Event = "END_TONE"
)

// Sentinel chunk indices used by control events.
const (
	ChunkIndexControl  = -1
	ChunkIndexAutoStop = -2
	ChunkIndexFinal    = 0
)

// Message is the single schema carried through every pipeline stage.
// EndOfSpeechMS is milliseconds since the session started; zero means
// unset. It is stamped by the coordinator and preserved verbatim
// downstream.
type Message struct {
	ID            string  `json:"id"`
	ChunkIndex    int     `json:"chunk_index"`
	Text          string  `json:"text"`
	Event         Event   `json:"event"`
	IsFinal       bool    `json:"is_final"`
	EndOfSpeechMS float64 `json:"end_of_speech_time,omitempty"`
}

// Terminal reports whether the event ends a stage's lifecycle for a session.
func (e Event) Terminal() bool {
	switch e {
	case EventEndASR, EventEndClean, EventEndGrammar, EventEndTone:
		return true
	}
	return false
}

// NewControl builds a control message for the given event with the control
// chunk index and preserved end-of-speech time.
func NewControl(id string, event Event, endOfSpeechMS float64) Message {
	return Message{
		ID:            id,
		ChunkIndex:    ChunkIndexControl,
		Event:         event,
		IsFinal:       true,
		EndOfSpeechMS: endOfSpeechMS,
	}
}
