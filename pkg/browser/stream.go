package browser

import (
	"context"
	"sync"
	"time"

	"github.com/hummhq/humm/pkg/logging"
	"github.com/hummhq/humm/pkg/types"
)

// Frame is one captured viewport image handed to a sink.
type Frame struct {
	// Data is a base64-encoded PNG with a data-URI prefix.
	Data      string
	Timestamp time.Time
	Sequence  int
}

// FrameSink receives frames from an active capture stream. HandleFrame may
// be called from a capture goroutine; implementations must be safe for
// concurrent use.
type FrameSink interface {
	HandleFrame(frame Frame)
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(frame Frame)

func (f FrameSinkFunc) HandleFrame(frame Frame) { f(frame) }

const (
	// DefaultFrameRate is used when stream_start doesn't request a rate.
	DefaultFrameRate = 2.0

	// DefaultFrameQuality is the advisory quality reported in stream status.
	DefaultFrameQuality = 80
)

// captureFunc produces one encoded frame. The controller supplies a
// screenshot-backed implementation; tests inject their own.
type captureFunc func(ctx context.Context) (string, error)

// streamer runs the bounded-rate capture loop. Each tick captures in its own
// goroutine so a slow capture never stalls the timer; per-frame failures are
// logged and skipped. At most one loop is active at a time.
type streamer struct {
	log *logging.Logger

	mu        sync.Mutex
	active    bool
	frameRate float64
	quality   int
	cancel    context.CancelFunc
	done      chan struct{}
	inflight  *sync.WaitGroup
}

func newStreamer(log *logging.Logger) *streamer {
	return &streamer{log: log}
}

// start begins capturing frames at frameRate, delivering them to sink.
// Starting while a stream is active stops the previous one first.
func (s *streamer) start(capture captureFunc, sink FrameSink, frameRate float64, quality int) {
	s.stop()

	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultFrameQuality
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	inflight := &sync.WaitGroup{}

	s.mu.Lock()
	s.active = true
	s.frameRate = frameRate
	s.quality = quality
	s.cancel = cancel
	s.done = done
	s.inflight = inflight
	s.mu.Unlock()

	period := time.Duration(float64(time.Second) / frameRate)
	go s.run(ctx, done, inflight, capture, sink, period)

	s.log.Infof("stream started at %.1f fps (quality %d)", frameRate, quality)
}

func (s *streamer) run(ctx context.Context, done chan struct{}, inflight *sync.WaitGroup, capture captureFunc, sink FrameSink, period time.Duration) {
	defer close(done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	sequence := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sequence++
			seq := sequence
			inflight.Add(1)
			// Fire-and-forget relative to the ticker: an overrunning
			// capture never delays the next scheduled tick.
			go func() {
				defer inflight.Done()
				data, err := capture(ctx)
				if err != nil {
					s.log.Warnf("frame %d capture failed: %v", seq, err)
					return
				}
				if ctx.Err() != nil {
					return
				}
				sink.HandleFrame(Frame{Data: data, Timestamp: time.Now(), Sequence: seq})
			}()
		}
	}
}

// stop cancels the capture loop and joins in-flight captures. After stop
// returns, no further frames reach the sink. Stopping an inactive streamer
// is a no-op.
func (s *streamer) stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	inflight := s.inflight
	s.active = false
	s.cancel = nil
	s.done = nil
	s.inflight = nil
	s.mu.Unlock()

	cancel()
	<-done
	inflight.Wait()

	s.log.Infof("stream stopped")
}

// status reports the current stream state.
func (s *streamer) status() types.StreamStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return types.StreamStatus{}
	}
	return types.StreamStatus{
		IsStreaming: true,
		FrameRate:   s.frameRate,
		Quality:     s.quality,
	}
}
