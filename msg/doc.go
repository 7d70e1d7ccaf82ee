// Package msg implements incremental extraction and encoding of text messages
// in the RFC 822 style: a start line, header fields and a body.
//
// A protocol is described by a [MessageClass], a table of [HeaderClass]
// implementations and a [BodyExtractor]. A [Message] is filled with received
// data through [Message.Buf] and [Message.Commit] (or [Message.Feed]) and parsed
// with [Message.Extract], as many times as the data arrives:
//
//	m := msg.New(mc, 0)
//	defer m.Destroy()
//	for {
//		if err := m.Feed(data, eos); err != nil {
//			return err
//		}
//		done, err := m.Extract()
//		if done {
//			return err
//		}
//	}
//
// Headers that fail to decode are kept as [ErrorClass] headers, the message
// fails only when such header class is critical. Extracted headers keep their
// raw bytes, so [Message.Prepare] followed by [Message.WriteTo] reproduces the
// received message.
package msg
