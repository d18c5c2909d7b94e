package interaction

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// KeyboardReader turns terminal input into key events for the top view
type KeyboardReader struct {
	oldState  *term.State
	fd        int
	in        io.Reader
	input     chan KeyEvent
	stop      chan struct{}
	closeOnce sync.Once
}

// KeyEvent represents a keyboard event
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyType represents the type of key pressed
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

const (
	keyCtrlC  = 3
	keyEscape = 27
)

// NewKeyboardReader puts stdin into raw mode and starts reading keys.
// When stdin is not a terminal keys are read as a plain stream.
func NewKeyboardReader() (*KeyboardReader, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return NewStreamReader(os.Stdin), nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	kr := newReader(os.Stdin)
	kr.fd = fd
	kr.oldState = oldState
	go kr.readInput()
	return kr, nil
}

// NewStreamReader reads keys from r without touching terminal modes
func NewStreamReader(r io.Reader) *KeyboardReader {
	kr := newReader(r)
	go kr.readInput()
	return kr
}

func newReader(r io.Reader) *KeyboardReader {
	return &KeyboardReader{
		in:    r,
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}
}

func (kr *KeyboardReader) readInput() {
	defer close(kr.input)
	buf := make([]byte, 64)

	for {
		n, err := kr.in.Read(buf)
		select {
		case <-kr.stop:
			return
		default:
		}

		// A single read may carry several keys when input is pasted or piped
		for _, event := range Decode(buf[:n]) {
			select {
			case kr.input <- event:
			case <-kr.stop:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Decode splits raw terminal bytes into key events. Unknown escape
// sequences are dropped.
func Decode(buf []byte) []KeyEvent {
	var events []KeyEvent
	for i := 0; i < len(buf); {
		b := buf[i]
		if b != keyEscape {
			events = append(events, KeyEvent{Key: rune(b), Type: KeyChar})
			i++
			continue
		}

		// CSI (ESC [) and SS3 (ESC O) arrows both end in A-D
		if i+2 < len(buf) && (buf[i+1] == '[' || buf[i+1] == 'O') {
			if kt, ok := arrowKey(buf[i+2]); ok {
				events = append(events, KeyEvent{Type: kt})
			}
			i += 3
			continue
		}
		events = append(events, KeyEvent{Key: keyEscape, Type: KeyEscape})
		i++
	}
	return events
}

func arrowKey(b byte) (KeyType, bool) {
	switch b {
	case 'A':
		return KeyUp, true
	case 'B':
		return KeyDown, true
	case 'C':
		return KeyRight, true
	case 'D':
		return KeyLeft, true
	}
	return KeyChar, false
}

// IsInterrupt reports whether the event is Ctrl+C
func (e KeyEvent) IsInterrupt() bool {
	return e.Type == KeyChar && e.Key == keyCtrlC
}

// Events returns the keyboard event channel; it is closed when input ends
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops the keyboard reader and restores the terminal
func (kr *KeyboardReader) Close() error {
	var err error
	kr.closeOnce.Do(func() {
		close(kr.stop)
		if kr.oldState != nil {
			err = term.Restore(kr.fd, kr.oldState)
		}
	})
	return err
}
