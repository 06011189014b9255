package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/anacrolix/tagflag"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Pablu23/ddrsend/internal/channel"
	"github.com/Pablu23/ddrsend/internal/client"
	"github.com/Pablu23/ddrsend/internal/common"
)

var flags = struct {
	CmdAddr     string        `help:"target command endpoint"`
	SampleAddr  string        `help:"target sample endpoint"`
	CmdLocal    string        `help:"local address of the command channel"`
	SampleLocal string        `help:"local address of the UDP sample channel"`
	Hello       bool          `help:"greet the target on the command channel before the prompt"`
	Iface       string        `help:"send samples as raw ethernet frames on this interface"`
	PeerMac     string        `help:"target hardware address for raw ethernet"`
	EtherType   int           `help:"ethernet type of sample frames"`
	Base        string        `help:"target memory base address"`
	FrameLen    int           `help:"bytes per sample frame"`
	HeaderLen   int           `help:"address header bytes per frame, including alignment"`
	PayloadLen  int           `help:"file bytes per frame"`
	AckLen      int           `help:"bytes per acknowledgment"`
	CmdLen      int           `help:"bytes per command packet"`
	ReplyLen    int           `help:"maximum command reply bytes"`
	AckTimeout  time.Duration `help:"wait for each acknowledgment, 0 waits forever"`
	Retries     int           `help:"resends of a rejected or unanswered frame"`
	Verbose     bool          `help:"log every chunk"`
}{
	CmdAddr:    "10.0.0.2:50001",
	SampleAddr: "10.0.0.2:50000",
	EtherType:  0x0102,
	Base:       "0x80000000",
	FrameLen:   958,
	HeaderLen:  6,
	PayloadLen: 952,
	AckLen:     6,
	CmdLen:     100,
	ReplyLen:   300,
	AckTimeout: 10 * time.Second,
}

func main() {
	if err := mainErr(); err != nil {
		log.WithError(err).Error("ddrsend failed")
		os.Exit(1)
	}
}

func mainErr() error {
	tagflag.Parse(&flags)

	log.SetFormatter(&log.TextFormatter{
		ForceColors: true,
	})
	if flags.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	base, err := strconv.ParseUint(flags.Base, 0, 32)
	if err != nil {
		return errors.Wrapf(err, "parse base address %q", flags.Base)
	}

	layout := common.Layout{
		FrameLength:   flags.FrameLen,
		HeaderLength:  flags.HeaderLen,
		PayloadLength: flags.PayloadLen,
		AckLength:     flags.AckLen,
	}
	if err := layout.Validate(); err != nil {
		return err
	}

	cmd, err := channel.DialUDP(flags.CmdLocal, flags.CmdAddr)
	if err != nil {
		return err
	}
	defer func(ch channel.Channel) {
		err := ch.Close()
		if err != nil {
			log.WithError(err).Error("Could not close command channel")
		}
	}(cmd)

	sample, err := dialSample()
	if err != nil {
		return err
	}
	defer func(ch channel.Channel) {
		err := ch.Close()
		if err != nil {
			log.WithError(err).Error("Could not close sample channel")
		}
	}(sample)

	c, err := client.New(cmd, sample, func(o *client.Options) {
		o.Layout = layout
		o.Base = uint32(base)
		o.CommandLength = flags.CmdLen
		o.ReplyLength = flags.ReplyLen
		o.AckTimeout = flags.AckTimeout
		o.Retries = flags.Retries
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flags.Hello {
		reply, err := c.Hello(ctx)
		if err != nil {
			return errors.Wrap(err, "hello")
		}
		fmt.Printf("Data received from remote host: %v\n", reply)
	}

	client.PrintHelpInfo(os.Stdout)
	err = c.Run(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		log.Info("Interrupted")
		return nil
	}
	return err
}

func dialSample() (channel.Channel, error) {
	if flags.Iface == "" {
		ch, err := channel.DialUDP(flags.SampleLocal, flags.SampleAddr)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}

	peer, err := net.ParseMAC(flags.PeerMac)
	if err != nil {
		return nil, errors.Wrapf(err, "parse peer hardware address %q", flags.PeerMac)
	}
	if flags.EtherType <= 0 || flags.EtherType > 0xFFFF {
		return nil, errors.Errorf("ethernet type %#x out of range", flags.EtherType)
	}
	ch, err := channel.DialEther(flags.Iface, peer, uint16(flags.EtherType))
	if err != nil {
		return nil, err
	}
	return ch, nil
}
