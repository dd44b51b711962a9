// Package detect guesses the character encoding of a byte sample.
//
// A Detector carries a minimum confidence below which it refuses to name an
// encoding. That setting is shared by everyone holding the same Detector, so
// callers that need a different threshold for a single call go through Run,
// which installs it and puts the previous value back afterwards.
package detect

import (
	"errors"
	"fmt"
	"sync"

	"github.com/saintfish/chardet"
)

// ASCII is the label reported for input made only of 7-bit bytes.
const ASCII = "ascii"

// DefaultMinConfidence is the threshold a new Chardet starts with.
const DefaultMinConfidence = 0.20

// Result of a detection. An empty Encoding means nothing was recognised with
// enough confidence.
type Result struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

type Detector interface {
	Detect(p []byte) (Result, error)
	MinConfidence() float64
	SetMinConfidence(v float64)
}

// Chardet wraps github.com/saintfish/chardet.
type Chardet struct {
	mu  sync.RWMutex
	min float64
	td  *chardet.Detector
}

func NewChardet() *Chardet {
	return &Chardet{min: DefaultMinConfidence, td: chardet.NewTextDetector()}
}

// Default is the process wide detector.
var Default Detector = NewChardet()

func (c *Chardet) MinConfidence() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.min
}

func (c *Chardet) SetMinConfidence(v float64) {
	c.mu.Lock()
	c.min = v
	c.mu.Unlock()
}

func (c *Chardet) Detect(p []byte) (Result, error) {
	if len(p) == 0 {
		return Result{}, nil
	}

	threshold := c.MinConfidence()
	if isASCII(p) {
		return accept(Result{Encoding: ASCII, Confidence: 1}, threshold), nil
	}

	r, err := c.td.DetectBest(p)
	if errors.Is(err, chardet.NotDetectedError) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("detect: %w", err)
	}
	return accept(Result{
		Encoding:   r.Charset,
		Confidence: float64(r.Confidence) / 100,
		Language:   r.Language,
	}, threshold), nil
}

func accept(r Result, threshold float64) Result {
	if r.Confidence < threshold {
		r.Encoding = ""
		r.Language = ""
	}
	return r
}

// isASCII reports whether p is plain 7-bit text. ESC is excluded because it
// introduces ISO-2022 shift sequences.
func isASCII(p []byte) bool {
	for _, b := range p {
		if b >= 0x80 || b == 0x1B {
			return false
		}
	}
	return true
}

// scope serializes threshold overrides on shared detectors.
var scope sync.Mutex

// Run detects the encoding of p with d. When threshold is non-nil it is
// installed as d's minimum confidence for the duration of the call and the
// previous value is restored on return, also when the detector panics. A
// panic is reported as an error.
func Run(d Detector, threshold *float64, p []byte) (res Result, err error) {
	scope.Lock()
	defer scope.Unlock()

	if threshold != nil {
		prev := d.MinConfidence()
		d.SetMinConfidence(*threshold)
		defer d.SetMinConfidence(prev)
	}

	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("detect: panic: %v", r)
		}
	}()
	return d.Detect(p)
}
