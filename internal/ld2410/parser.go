package ld2410

import "encoding/binary"

// FrameKind distinguishes the two frame families on the wire.
type FrameKind uint8

const (
	FrameData FrameKind = iota
	FrameCommand
)

type parseState uint8

const (
	stateHeader parseState = iota
	stateLength
	statePayload
)

// frameOverhead is header(4) + length(2) + tail(4).
const frameOverhead = 10

// Parser accumulates one byte at a time from the UART stream and reports
// when a complete, tail-validated frame is available. It tolerates arbitrary
// garbage between frames: an unrecognized 4-byte window slides forward one
// byte at a time until a valid header lines up again, and any malformed
// length or tail resets the machine to the header state with the error
// counter bumped. The parser never reads or writes outside its fixed buffer.
//
// Parser is not safe for concurrent use; it is owned by the single poll
// goroutine that drives the byte feed.
type Parser struct {
	buf      [MaxFrameLen]byte
	pos      int
	state    parseState
	frameLen int

	// FramesOK and FramesErr count completed frames and discarded
	// malformed frames since construction.
	FramesOK  uint64
	FramesErr uint64
}

// Feed consumes exactly one byte. It returns true when the byte completed a
// valid frame; the frame is then readable through FrameKind and Payload
// until the next call to Feed.
func (p *Parser) Feed(b byte) bool {
	switch p.state {
	case stateHeader:
		if p.pos < 4 {
			p.buf[p.pos] = b
			p.pos++
		}
		if p.pos == 4 {
			header := binary.LittleEndian.Uint32(p.buf[0:4])
			if header == DataHeader || header == CmdHeader {
				p.state = stateLength
			} else {
				// Slide the window: drop the oldest byte and keep looking.
				copy(p.buf[0:3], p.buf[1:4])
				p.pos = 3
			}
		}

	case stateLength:
		p.buf[p.pos] = b
		p.pos++
		if p.pos == 6 {
			p.frameLen = int(binary.LittleEndian.Uint16(p.buf[4:6]))
			if p.frameLen > MaxFrameLen-frameOverhead {
				// Garbage-triggered length field: fail now rather than
				// accumulate toward a tail that can never validate.
				p.FramesErr++
				p.reset()
			} else {
				p.state = statePayload
			}
		}

	case statePayload:
		p.buf[p.pos] = b
		p.pos++
		if p.pos >= 6+p.frameLen+4 {
			header := binary.LittleEndian.Uint32(p.buf[0:4])
			tail := binary.LittleEndian.Uint32(p.buf[6+p.frameLen : 6+p.frameLen+4])

			// A data header must pair with a data tail and a command header
			// with a command tail; a crossed pair is an error even though
			// each half looked valid in isolation.
			tailOK := (header == DataHeader && tail == DataTail) ||
				(header == CmdHeader && tail == CmdTail)

			frameLen := p.frameLen
			p.reset()
			if tailOK {
				p.FramesOK++
				p.frameLen = frameLen // keep accessors valid until next Feed
				return true
			}
			p.FramesErr++
		}

	default:
		p.reset()
	}

	return false
}

// reset returns the machine to its resting state. Every exit path from a
// completed or failed frame lands here.
func (p *Parser) reset() {
	p.pos = 0
	p.frameLen = 0
	p.state = stateHeader
}

// FrameKind reports the kind of the most recently completed frame. Valid
// only immediately after Feed returned true.
func (p *Parser) FrameKind() FrameKind {
	if binary.LittleEndian.Uint32(p.buf[0:4]) == CmdHeader {
		return FrameCommand
	}
	return FrameData
}

// Payload returns the payload bytes of the most recently completed frame.
// The slice aliases the parser's internal buffer and is valid only until
// the next call to Feed.
func (p *Parser) Payload() []byte {
	return p.buf[6 : 6+p.frameLen]
}
