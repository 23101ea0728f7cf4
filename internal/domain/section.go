package domain

// DefaultReaderID is the narrator assigned to speech units unless a caller
// picks another voice.
const DefaultReaderID = "default"

// MaxSectionLevel caps heading depth; h5 and h6 are reported as level 4.
const MaxSectionLevel = 4

// SpeechUnit is the smallest narratable block of text.
type SpeechUnit struct {
	Text     string `json:"text"`
	ReaderID string `json:"readerId"`
}

// Section groups speech units under a heading, in document order.
type Section struct {
	Title       string       `json:"title"`
	Level       int          `json:"level,omitempty"`
	SpeechUnits []SpeechUnit `json:"speechUnits"`
}

// ProcessedText is the wrapper downstream narration consumes.
type ProcessedText struct {
	Sections []Section `json:"sections"`
}
