// Package session drives the emission core (wire, sender, queue, emit)
// against a real net.PacketConn on a fixed flush cadence. It is the
// ambient layer: logging, metrics, and configuration live here, never in
// the core packages themselves.
package session

import (
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lowquark/daten/emit"
	"github.com/lowquark/daten/internal/wrk"
	"github.com/lowquark/daten/queue"
	"github.com/lowquark/daten/sender"
	"github.com/lowquark/daten/session/config"
	"github.com/lowquark/daten/session/metrics"
	"github.com/lowquark/daten/wire"
)

// Session owns one peer's worth of send-side state and drives it on a
// ticker: build an Emitter for the next flush ID, drain data frames, ack
// frames, and an occasional sync frame, and write the results to conn.
type Session struct {
	wrk.Worker

	cfg    *config.Config
	log    *log.Logger
	mtx    *metrics.Metrics
	conn   net.PacketConn
	remote net.Addr

	store         *sender.PacketStore
	packetSender  *sender.PacketSender
	pendingQueue  *queue.PendingQueue
	resendQueue   *queue.ResendQueue
	frameQueue    *queue.FrameQueue
	frameAckQueue *queue.FrameAckQueue

	flushID uint32
	rttMs   uint64
}

// New creates a Session bound to conn, sending to remote, configured by
// cfg. reg is the Prometheus registerer the session's metrics are
// attached to; pass prometheus.DefaultRegisterer unless the caller wants
// an isolated registry (tests typically do).
func New(cfg *config.Config, conn net.PacketConn, remote net.Addr, reg prometheus.Registerer, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	store := sender.NewPacketStore()
	return &Session{
		cfg:           cfg,
		log:           logger,
		mtx:           metrics.New(reg),
		conn:          conn,
		remote:        remote,
		store:         store,
		packetSender:  sender.NewPacketSender(store, cfg.Window.PacketWindowSize, 0),
		pendingQueue:  queue.NewPendingQueue(),
		resendQueue:   queue.NewResendQueue(),
		frameQueue:    queue.NewFrameQueue(0, cfg.Window.FrameWindowSize),
		frameAckQueue: queue.NewFrameAckQueue(),
		rttMs:         cfg.Timing.InitialRTTMs,
	}
}

// Enqueue admits data for eventual transmission under the given channel
// and send mode, returning the packet's assigned sequence ID.
func (s *Session) Enqueue(data []byte, channelID uint16, windowParentLead, channelParentLead uint32, mode sender.SendMode) uint32 {
	return s.packetSender.Enqueue(data, channelID, windowParentLead, channelParentLead, mode, s.flushID)
}

// AcknowledgePacket advances the packet window up to sequenceID,
// evicting every packet strictly below it (the packet-skip mechanism).
// sequenceID itself remains outstanding.
func (s *Session) AcknowledgePacket(sequenceID uint32) {
	s.packetSender.Acknowledge(sequenceID)
}

// AcknowledgeFrames reconciles a peer-reported ack group against the
// Frame Queue, updating the RTT estimate when rttSampleMs is non-nil.
func (s *Session) AcknowledgeFrames(group wire.AckGroup, rttSampleMs *uint64) bool {
	ok := s.frameQueue.AcknowledgeGroup(group, rttSampleMs)
	if ok && rttSampleMs != nil {
		s.rttMs = *rttSampleMs
	}
	return ok
}

// Run starts the flush loop, ticking every cfg.Timing.FlushIntervalMs,
// and the receive loop that reconciles inbound ack/sync frames, both
// until Halt is called.
func (s *Session) Run() {
	s.Worker.Go(s.flushLoop)
	s.Worker.Go(s.recvLoop)
}

func (s *Session) flushLoop() {
	ticker := time.NewTicker(time.Duration(s.cfg.Timing.FlushIntervalMs) * time.Millisecond)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-s.HaltCh():
			return
		case <-ticker.C:
			s.flush(uint64(time.Since(start).Milliseconds()))
		}
	}
}

// recvLoop reads inbound datagrams and dispatches them by frame kind.
// Data frames are out of scope for reassembly here; they are decoded
// just far enough to be rejected cleanly rather than panicking. The read
// deadline is what lets the loop notice Halt without closing conn out
// from under its owner.
func (s *Session) recvLoop() {
	buf := make([]byte, wire.MaxFrameSize)
	for {
		select {
		case <-s.HaltCh():
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-s.HaltCh():
				return
			default:
			}
			s.log.Warnf("reading from %v failed: %v", s.remote, err)
			continue
		}

		s.handleInbound(buf[:n])
	}
}

// handleInbound dispatches one inbound frame by kind, routing ack and
// sync frames into window-cursor reconciliation and rejecting anything
// malformed without panicking.
func (s *Session) handleInbound(b []byte) {
	kind, err := wire.FrameKind(b)
	if err != nil {
		s.log.Warnf("dropping undecodable frame from %v: %v", s.remote, err)
		return
	}

	switch kind {
	case "ack":
		_, packetWindowBaseID, frameIDs, err := wire.DecodeAckFrame(b)
		if err != nil {
			s.log.Warnf("dropping malformed ack frame from %v: %v", s.remote, err)
			return
		}
		s.AcknowledgePacket(packetWindowBaseID)
		s.frameQueue.AcknowledgeIDs(frameIDs)
	case "sync":
		nextFrameID, nextPacketID, err := wire.DecodeSyncFrame(b)
		if err != nil {
			s.log.Warnf("dropping malformed sync frame from %v: %v", s.remote, err)
			return
		}
		if nextPacketID != nil {
			s.AcknowledgePacket(*nextPacketID)
		}
		if nextFrameID != nil {
			s.frameQueue.SkipBelow(*nextFrameID)
		}
	case "data":
		// Reassembly is out of scope; decoding only confirms the frame
		// isn't garbage before it's dropped.
		if _, _, _, err := wire.DecodeDataFrame(b); err != nil {
			s.log.Warnf("dropping malformed data frame from %v: %v", s.remote, err)
		}
	default:
		s.log.Warnf("dropping frame of unrecognized kind %q from %v", kind, s.remote)
	}
}

// flush runs one emission cycle: data frames, then ack frames, writing
// each produced frame to conn immediately.
func (s *Session) flush(nowMs uint64) {
	s.flushID++
	s.frameQueue.ResetRateLimited()

	e := emit.NewEmitter(s.store, s.packetSender, s.pendingQueue, s.resendQueue, s.frameQueue, s.frameAckQueue, s.flushID)

	var frameCount, byteCount int
	track := func(kind string) func([]byte) {
		inner := s.send(kind)
		return func(data []byte) {
			frameCount++
			byteCount += len(data)
			inner(data)
		}
	}

	dataBytes := e.EmitDataFrames(nowMs, s.rttMs, s.cfg.Timing.MaxSendSize, track("data"))
	remaining := s.cfg.Timing.MaxSendSize - dataBytes
	if remaining > 0 {
		ackBytes := e.EmitAckFrames(s.frameQueue.NextID(), s.packetSender.WindowBase(), remaining, false, track("ack"))
		remaining -= ackBytes
	}

	// Advertise window cursors with a sync frame every 20th flush, so a
	// peer that has fallen behind on ack frames still learns where the
	// windows stand.
	if remaining > 0 && s.flushID%20 == 0 {
		frameBase := s.frameQueue.NextID()
		packetBase := s.packetSender.WindowBase()
		e.EmitSyncFrame(&frameBase, &packetBase, remaining, track("sync"))
	}

	s.mtx.FragmentsResent.Add(float64(e.FragmentsResent()))

	if s.frameQueue.RateLimited() {
		s.mtx.RateLimited.Inc()
	}

	if frameCount > 0 {
		s.log.Debugf("flush %d: emitted %d frame(s), %d byte(s)", s.flushID, frameCount, byteCount)
	}
}

// send returns a callback that writes a frame's bytes to the peer and
// records its kind in the metrics bundle.
func (s *Session) send(kind string) func([]byte) {
	return func(data []byte) {
		s.mtx.FramesEmitted.WithLabelValues(kind).Inc()
		s.mtx.BytesEmitted.WithLabelValues(kind).Add(float64(len(data)))
		if _, err := s.conn.WriteTo(data, s.remote); err != nil {
			s.log.Errorf("write to %v failed: %v", s.remote, err)
		}
	}
}

// Close halts the flush and receive loops and waits for both to exit.
func (s *Session) Close() error {
	s.Worker.Halt()
	s.Worker.Wait()
	return nil
}

func (s *Session) String() string {
	return fmt.Sprintf("session(remote=%v, flushID=%d)", s.remote, s.flushID)
}
