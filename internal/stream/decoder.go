// Package stream decodes and applies the backend's incremental answer
// stream: frame extraction, event interpretation, and the per-question
// session state machine.
package stream

import "strings"

// Decoder splits an incoming text stream into complete frames. Frames are
// separated by a blank line. The decoder carries partial lines and partial
// frames across Feed calls, so fragment boundaries never change the emitted
// frame sequence.
//
// Decoding never fails: empty and whitespace-only frames are filtered and
// everything else passes through for interpretation.
type Decoder struct {
	tail    string
	pending []string
}

// Feed consumes one fragment and returns the frames it completed, in order.
func (d *Decoder) Feed(fragment string) []string {
	if fragment == "" {
		return nil
	}
	data := d.tail + fragment
	var frames []string
	for {
		idx := strings.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(data[:idx], "\r")
		data = data[idx+1:]
		if line == "" {
			if frame, ok := d.takePending(); ok {
				frames = append(frames, frame)
			}
			continue
		}
		d.pending = append(d.pending, line)
	}
	d.tail = data
	return frames
}

// Flush ends the stream: any buffered tail becomes the final frame. The
// decoder is reusable afterwards.
func (d *Decoder) Flush() (string, bool) {
	if d.tail != "" {
		line := strings.TrimRight(d.tail, "\r")
		d.tail = ""
		if line != "" {
			d.pending = append(d.pending, line)
		}
	}
	return d.takePending()
}

func (d *Decoder) takePending() (string, bool) {
	if len(d.pending) == 0 {
		return "", false
	}
	frame := strings.Join(d.pending, "\n")
	d.pending = d.pending[:0]
	if strings.TrimSpace(frame) == "" {
		return "", false
	}
	return frame, true
}
