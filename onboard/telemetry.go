package onboard

import (
	"context"

	"github.com/CodedInternet/motorlink/onboard/seriallink"
)

// TelemetryReader drains a link and forwards every non blank line. It stops
// on the first read error or when its context is cancelled; it never
// reconnects.
type TelemetryReader struct {
	link   *seriallink.Link
	sink   func(msg string)
	onFail func(err error)
}

func NewTelemetryReader(link *seriallink.Link, sink func(msg string), onFail func(err error)) *TelemetryReader {
	return &TelemetryReader{
		link:   link,
		sink:   sink,
		onFail: onFail,
	}
}

func (r *TelemetryReader) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		line, ok, err := r.link.ReadLine()
		if err != nil {
			// closing the port on disconnect surfaces as a read error
			if ctx.Err() == nil && r.onFail != nil {
				r.onFail(err)
			}
			return
		}
		if !ok {
			continue
		}

		if msg, keep := seriallink.DecodeTelemetry(line); keep {
			r.sink(msg)
		}
	}
}
