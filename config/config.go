// Package config holds every tunable bound recognized by the core: retry counts,
// size limits, and timeouts, grouped per concern with a Default() constructor
// and a Fill that patches zero-valued fields from defaults.
package config

import "time"

// Retry groups the bounds on I/O retry behaviour (§4.3, §6).
type Retry struct {
	// MaxCount caps the number of retried short reads/writes per call.
	MaxCount int
	// BaseBackoff is the unit used in the exponential back-off:
	// delay = BaseBackoff * 2^(attempt-1).
	BaseBackoff time.Duration
}

// Header groups the bounds on the header section (§6).
type Header struct {
	// MaxSectionSize caps the total bytes of the header block (MAX_HEADER_SIZE).
	MaxSectionSize int
	// MaxNameLength caps a single header name (MAX_HEADER_NAME_LENGTH).
	MaxNameLength int
	// MaxValueLength caps a single header value, post-folding (MAX_HEADER_VALUE_LENGTH).
	MaxValueLength int
	// InitialBufferSize is the starting size of the header-accumulation buffer.
	InitialBufferSize int
}

// Body groups the bounds on message bodies (§6).
type Body struct {
	// MaxSize caps received body bytes (MAX_BODY_SIZE).
	MaxSize int64
	// FileBackedThreshold is the Content-Length above which the server's default
	// body-type chooser spills to a file-backed body (§4.7).
	FileBackedThreshold int64
	// ScratchDir is where file-backed bodies create their scratch files.
	ScratchDir string
}

// NET groups per-connection socket timeouts (§6).
type NET struct {
	// ReceiveTimeout bounds a single blocking receive on a connection.
	ReceiveTimeout time.Duration
	// IdleTimeout bounds how long a session waits for the next request on a
	// keep-alive connection before closing.
	IdleTimeout time.Duration
	// ListenBacklog records the listen backlog; acceptor.Listen does not pass
	// it to the socket, since Go's net package has no backlog knob.
	ListenBacklog int
}

// Dispatcher groups the I/O dispatcher's worker pool sizing (§4.5).
type Dispatcher struct {
	// WorkerPoolSize is the number of goroutines processing posted tasks.
	// Zero means runtime.NumCPU() * 4.
	WorkerPoolSize int `test:"nullable"`
	// DrainInterval is the period of the event loop's idle timer. Run waits
	// on all completion queues and the stop signal at once, so Stop ends it
	// without waiting for this interval.
	DrainInterval time.Duration
}

// Config is the top-level settings object threaded from App down into every
// component that needs a bound. Either start from Default() and override the
// fields that matter, or build a partial literal and pass it through Fill to
// patch its zero-valued fields from Default().
type Config struct {
	Retry      Retry
	Header     Header
	Body       Body
	NET        NET
	Dispatcher Dispatcher
	// ServerName is sent in the Server response header.
	ServerName string
}

// Default returns a fully populated Config matching the bounds in spec.md §6.
func Default() *Config {
	return &Config{
		Retry: Retry{
			MaxCount:    5,
			BaseBackoff: 10 * time.Millisecond,
		},
		Header: Header{
			MaxSectionSize:    16 * 1024,
			MaxNameLength:     256,
			MaxValueLength:    8 * 1024,
			InitialBufferSize: 1024,
		},
		Body: Body{
			MaxSize:             16 * 1024 * 1024,
			FileBackedThreshold: 1024 * 1024,
			ScratchDir:          "Receives",
		},
		NET: NET{
			ReceiveTimeout: 30 * time.Second,
			IdleTimeout:    15 * time.Second,
			ListenBacklog:  4096,
		},
		Dispatcher: Dispatcher{
			WorkerPoolSize: 0,
			DrainInterval:  50 * time.Millisecond,
		},
		ServerName: "kayros",
	}
}

// Fill patches every zero-valued field of c with the corresponding field from
// Default(), so callers may build a Config literal specifying only the bounds
// they care to override.
func Fill(c Config) Config {
	d := Default()

	if c.Retry.MaxCount == 0 {
		c.Retry.MaxCount = d.Retry.MaxCount
	}
	if c.Retry.BaseBackoff == 0 {
		c.Retry.BaseBackoff = d.Retry.BaseBackoff
	}
	if c.Header.MaxSectionSize == 0 {
		c.Header.MaxSectionSize = d.Header.MaxSectionSize
	}
	if c.Header.MaxNameLength == 0 {
		c.Header.MaxNameLength = d.Header.MaxNameLength
	}
	if c.Header.MaxValueLength == 0 {
		c.Header.MaxValueLength = d.Header.MaxValueLength
	}
	if c.Header.InitialBufferSize == 0 {
		c.Header.InitialBufferSize = d.Header.InitialBufferSize
	}
	if c.Body.MaxSize == 0 {
		c.Body.MaxSize = d.Body.MaxSize
	}
	if c.Body.FileBackedThreshold == 0 {
		c.Body.FileBackedThreshold = d.Body.FileBackedThreshold
	}
	if c.Body.ScratchDir == "" {
		c.Body.ScratchDir = d.Body.ScratchDir
	}
	if c.NET.ReceiveTimeout == 0 {
		c.NET.ReceiveTimeout = d.NET.ReceiveTimeout
	}
	if c.NET.IdleTimeout == 0 {
		c.NET.IdleTimeout = d.NET.IdleTimeout
	}
	if c.NET.ListenBacklog == 0 {
		c.NET.ListenBacklog = d.NET.ListenBacklog
	}
	if c.Dispatcher.DrainInterval == 0 {
		c.Dispatcher.DrainInterval = d.Dispatcher.DrainInterval
	}
	if c.ServerName == "" {
		c.ServerName = d.ServerName
	}

	return c
}
