package ld2410

import (
	"encoding/binary"
	"fmt"
)

// ErrFrameTooLarge is returned when an encoded command would exceed
// MaxFrameLen. Nothing is written in that case; frames are never silently
// truncated.
var ErrFrameTooLarge = fmt.Errorf("ld2410: command frame exceeds %d bytes", MaxFrameLen)

// EncodeCommand builds a complete outbound command frame:
//
//	CMD_HEADER(4) + LEN(2, LE) + OPCODE(2, LE) + DATA + CMD_TAIL(4)
//
// where LEN counts the opcode plus data bytes. The output is always
// acceptable to Parser as an inbound command-kind frame.
func EncodeCommand(opcode uint16, data []byte) ([]byte, error) {
	payloadLen := 2 + len(data)
	total := 4 + 2 + payloadLen + 4
	if total > MaxFrameLen {
		return nil, ErrFrameTooLarge
	}

	frame := make([]byte, 0, total)
	frame = binary.LittleEndian.AppendUint32(frame, CmdHeader)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(payloadLen))
	frame = binary.LittleEndian.AppendUint16(frame, opcode)
	frame = append(frame, data...)
	frame = binary.LittleEndian.AppendUint32(frame, CmdTail)
	return frame, nil
}
