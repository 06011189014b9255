package target

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Pablu23/ddrsend/internal/common"
)

// Greeting answers a client hello.
const Greeting = "Connection established"

// Target emulates the receiving device: it stores every frame it accepts in
// a memory image and answers with a fixed size acknowledgment.
type Target struct {
	mu       sync.Mutex
	memory   []byte
	frames   int
	commands [][]string
	hellos   int

	options    *Options
	sampleConn *net.UDPConn
	cmdConn    *net.UDPConn
}

func New(opts ...func(*Options)) (*Target, error) {
	options := NewDefaultOptions()

	for _, opt := range opts {
		opt(options)
	}

	if err := options.Layout.Validate(); err != nil {
		return nil, err
	}

	sampleConn, err := listen(options.SampleAddress)
	if err != nil {
		return nil, err
	}
	cmdConn, err := listen(options.CommandAddress)
	if err != nil {
		sampleConn.Close()
		return nil, err
	}

	return &Target{
		memory:     make([]byte, options.MemorySize),
		options:    options,
		sampleConn: sampleConn,
		cmdConn:    cmdConn,
	}, nil
}

func listen(address string) (*net.UDPConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %v", address)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %v", address)
	}
	return conn, nil
}

func (target *Target) SampleAddr() net.Addr {
	return target.sampleConn.LocalAddr()
}

func (target *Target) CommandAddr() net.Addr {
	return target.cmdConn.LocalAddr()
}

// Serve answers datagrams until ctx is done, then closes both sockets.
func (target *Target) Serve(ctx context.Context) error {
	log.WithFields(log.Fields{
		"Samples":  target.SampleAddr().String(),
		"Commands": target.CommandAddr().String(),
	}).Info("Target listening")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		target.serve(ctx, target.sampleConn, target.options.Layout.FrameLength, target.handleFrame)
	}()
	go func() {
		defer wg.Done()
		target.serve(ctx, target.cmdConn, max(target.options.CommandLength, target.options.ReplyLength), target.handleCommand)
	}()

	<-ctx.Done()
	target.sampleConn.Close()
	target.cmdConn.Close()
	wg.Wait()

	log.Info("Target is shutting down")
	return nil
}

func (target *Target) serve(ctx context.Context, conn *net.UDPConn, size int, handle func(*net.UDPConn, *net.UDPAddr, []byte)) {
	buf := make([]byte, size+1)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("Could not retrieve UDP Packet")
			continue
		}
		handle(conn, addr, buf[:n])
	}
}

func (target *Target) handleFrame(conn *net.UDPConn, addr *net.UDPAddr, data []byte) {
	layout := target.options.Layout

	frame, err := common.FrameFromBytes(layout, data)
	if err != nil {
		log.WithError(err).Warn("Received invalid Frame")
		target.reply(conn, addr, common.NewAck(layout, false).ToBytes())
		return
	}

	accepted := target.store(frame)
	target.reply(conn, addr, common.NewAck(layout, accepted).ToBytes())
}

func (target *Target) store(frame *common.Frame) bool {
	offset := int64(frame.Address) - int64(target.options.Base)
	fields := log.Fields{
		"Address": fmt.Sprintf("%#08x", frame.Address),
		"Offset":  offset,
	}

	if target.options.Reject != nil && target.options.Reject(frame) {
		log.WithFields(fields).Debug("Rejecting Frame")
		return false
	}
	if offset < 0 || offset+int64(len(frame.Payload)) > int64(len(target.memory)) {
		log.WithFields(fields).Warn("Frame outside of memory")
		return false
	}

	target.mu.Lock()
	copy(target.memory[offset:], frame.Payload)
	target.frames++
	target.mu.Unlock()

	log.WithFields(fields).Debug("Stored Frame")
	return true
}

func (target *Target) handleCommand(conn *net.UDPConn, addr *net.UDPAddr, data []byte) {
	if common.IsHello(data) {
		target.mu.Lock()
		target.hellos++
		target.mu.Unlock()

		log.WithField("Client", addr.String()).Info("Client connected")
		reply := make([]byte, target.options.ReplyLength)
		copy(reply, Greeting)
		target.reply(conn, addr, reply)
		return
	}

	pck, err := common.CommandFromBytes(data)
	if err != nil {
		log.WithError(err).Warn("Received invalid Command")
		return
	}

	target.mu.Lock()
	target.commands = append(target.commands, pck.Args)
	target.mu.Unlock()

	reply := make([]byte, target.options.ReplyLength)
	copy(reply, fmt.Sprintf("ok %v", pck.Args))
	target.reply(conn, addr, reply)
}

func (target *Target) reply(conn *net.UDPConn, addr *net.UDPAddr, data []byte) {
	if _, err := conn.WriteToUDP(data, addr); err != nil {
		log.WithError(err).Error("Could not write Packet to UDP")
	}
}

// Memory returns a copy of the memory image.
func (target *Target) Memory() []byte {
	target.mu.Lock()
	defer target.mu.Unlock()
	mem := make([]byte, len(target.memory))
	copy(mem, target.memory)
	return mem
}

func (target *Target) Frames() int {
	target.mu.Lock()
	defer target.mu.Unlock()
	return target.frames
}

func (target *Target) Commands() [][]string {
	target.mu.Lock()
	defer target.mu.Unlock()
	return append([][]string(nil), target.commands...)
}

func (target *Target) Hellos() int {
	target.mu.Lock()
	defer target.mu.Unlock()
	return target.hellos
}
