// Package sender defines the pluggable delivery step of a shipper.
//
// The default shipper posts batches over HTTP. Implement [Sender] to deliver
// them elsewhere (a local file, a message broker, a test recorder) and pass
// it to the shipper with logship.WithSender.
//
// # Usage
//
//	type stdoutSender struct{}
//
//	func (stdoutSender) Send(ctx context.Context, payload []byte) sender.Result {
//	    if _, err := os.Stdout.Write(append(payload, '\n')); err != nil {
//	        return sender.Failed(err)
//	    }
//	    return sender.OK()
//	}
//
// A Sender is called for one batch at a time and must not retry: the shipper
// owns retry timing and backs off on failed results.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package sender
