package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Masterchef365/web-transport-test/pkg/channel"
	"github.com/Masterchef365/web-transport-test/pkg/chat"
	"github.com/Masterchef365/web-transport-test/pkg/config"
	"github.com/Masterchef365/web-transport-test/pkg/observability"
	"github.com/Masterchef365/web-transport-test/pkg/protocol/codec"
	"github.com/Masterchef365/web-transport-test/pkg/session"
	"github.com/Masterchef365/web-transport-test/pkg/transport/quic"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	room := flag.String("room", "general", "room to join")
	user := flag.String("user", "anonymous", "username")
	message := flag.String("message", "hello from wtt", "message to send after joining")
	listen := flag.Duration("listen", 10*time.Second, "how long to print inbound messages before exiting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fatalf("setup logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cdc := codec.NewRegistry().Get(cfg.Codec.ContentType)
	if cdc == nil {
		fatalf("no codec for %q", cfg.Codec.ContentType)
	}

	ctx := context.Background()
	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Transport.DialTimeoutMS)*time.Millisecond)
	defer cancel()

	raw, err := quic.New().Dial(dialCtx, cfg.Transport.Dial)
	if err != nil {
		fatalf("dial %s: %v", cfg.Transport.Dial, err)
	}
	sess := session.Wrap(raw)
	defer func() { _ = sess.Close() }()

	id, st, err := sess.Open(ctx)
	if err != nil {
		fatalf("open stream: %v", err)
	}
	zap.L().Info("opened chat stream", zap.Uint64("id", uint64(id)))

	ch := channel.New[chat.ClientFrame, chat.ServerFrame](st, cdc)
	defer func() { _ = ch.Close() }()

	if err := ch.Send(chat.ClientFrame{Join: &chat.JoinRequest{Room: *room}}); err != nil {
		fatalf("send join: %v", err)
	}
	reply, err := ch.Recv()
	if err != nil {
		fatalf("recv join reply: %v", err)
	}
	if reply.Reply == nil || !reply.Reply.OK {
		reason := "no reply"
		if reply.Reply != nil {
			reason = reply.Reply.Reason
		}
		fatalf("join rejected: %s", reason)
	}
	fmt.Println("joined room:", *room)

	if err := ch.Send(chat.ClientFrame{Message: &chat.Message{
		Username:  *user,
		Text:      *message,
		UserColor: [3]uint8{0xff, 0xff, 0xff},
	}}); err != nil {
		fatalf("send message: %v", err)
	}

	deadline := time.After(*listen)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for frame, err := range ch.Messages() {
			if err != nil {
				zap.L().Warn("recv", zap.Error(err))
				return
			}
			if frame.Message != nil {
				fmt.Printf("<%s> %s\n", frame.Message.Username, frame.Message.Text)
			}
		}
	}()
	select {
	case <-deadline:
	case <-done:
	}
}

func fatalf(format string, a ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
