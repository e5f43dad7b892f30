package dialect

// Detector picks a dialect by probing a payload against each registered
// dialect in order.
type Detector struct {
	dialects []Dialect
}

// NewDetector creates a Detector with the default dialect set.
// Dialects are checked in order: Anthropic, then OpenAI.
func NewDetector() *Detector {
	return &Detector{
		dialects: []Dialect{
			mustNew(Anthropic),
			mustNew(OpenAI),
		},
	}
}

// Detect returns the first dialect that reports it can handle the payload.
// The second return value is false when no dialect matched.
func (d *Detector) Detect(payload []byte) (Dialect, bool) {
	for _, dl := range d.dialects {
		if dl.CanHandle(payload) {
			return dl, true
		}
	}
	return nil, false
}

func mustNew(name string) Dialect {
	dl, err := New(name)
	if err != nil {
		panic(err)
	}
	return dl
}
