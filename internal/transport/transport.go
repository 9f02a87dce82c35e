/*
Package transport ships composited frames off the engine. Every sink
here implements vis.Sink and follows the same policy: a sink that
cannot keep up drops frames, it never stalls the render loop. The
WebSocket sink broadcasts JSON scalars to browser hosts, the UDP sink
sends the binary packet with the full particle attributes, and the log
sink prints rate-limited summaries as a debugging aid.
*/
package transport

import (
	"errors"

	"vizor/internal/vis"
)

// Multi fans one frame out to several sinks. Errors are joined so the
// engine still counts the tick as dropped when any sink refused it.
func Multi(sinks ...vis.Sink) vis.Sink {
	switch len(sinks) {
	case 0:
		return nil
	case 1:
		return sinks[0]
	}
	return multiSink(sinks)
}

type multiSink []vis.Sink

func (m multiSink) Publish(f *vis.Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
