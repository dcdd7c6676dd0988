package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Masterchef365/web-transport-test/pkg/channel"
	"github.com/Masterchef365/web-transport-test/pkg/chat"
	"github.com/Masterchef365/web-transport-test/pkg/config"
	"github.com/Masterchef365/web-transport-test/pkg/observability"
	"github.com/Masterchef365/web-transport-test/pkg/protocol/codec"
	"github.com/Masterchef365/web-transport-test/pkg/session"
	"github.com/Masterchef365/web-transport-test/pkg/transport"
	"github.com/Masterchef365/web-transport-test/pkg/transport/quic"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
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

	rooms := chat.NewRegistry(
		chat.RoomInfo{Name: "general", LongDesc: "General discussion"},
		chat.RoomInfo{Name: "random", LongDesc: "Anything goes"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := quic.New().Listen(ctx, cfg.Transport.Listen)
	if err != nil {
		fatalf("listen: %v", err)
	}
	zap.L().Info("chat server listening", zap.String("addr", l.Addr().String()))

	for {
		raw, err := l.Accept(ctx)
		if err != nil {
			zap.L().Error("accept session", zap.Error(err))
			return
		}
		go serveSession(ctx, session.Wrap(raw), rooms, cdc)
	}
}

// serveSession accepts sub-channels on one client session until it dies.
func serveSession(ctx context.Context, sess *session.Session, rooms *chat.Registry, cdc codec.Codec) {
	connID := uuid.NewString()
	log := zap.L().With(zap.String("conn", connID))
	log.Info("session established")
	defer func() {
		_ = sess.Close()
		log.Info("session closed")
	}()

	for {
		id, st, err := sess.Accept(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Warn("accept stream", zap.Error(err))
			}
			return
		}
		memberID := connID + "/" + fmt.Sprint(id)
		go serveChannel(st, memberID, rooms, cdc, log.With(zap.Uint64("stream", uint64(id))))
	}
}

// serveChannel runs the demo protocol on one sub-channel: a join request,
// then chat traffic in both directions until either side ends the stream.
func serveChannel(st transport.Stream, memberID string, rooms *chat.Registry, cdc codec.Codec, log *zap.Logger) {
	ch := channel.New[chat.ServerFrame, chat.ClientFrame](st, cdc)
	defer func() { _ = ch.Close() }()

	first, err := ch.Recv()
	if err != nil {
		log.Warn("recv join", zap.Error(err))
		return
	}
	if first.Join == nil {
		_ = ch.Send(chat.ServerFrame{Reply: &chat.JoinReply{OK: false, Reason: "expected join request"}})
		return
	}

	inbox, err := rooms.Join(first.Join.Room, memberID)
	if err != nil {
		_ = ch.Send(chat.ServerFrame{Reply: &chat.JoinReply{OK: false, Reason: err.Error()}})
		return
	}
	defer rooms.Leave(first.Join.Room, memberID)

	if err := ch.Send(chat.ServerFrame{Reply: &chat.JoinReply{OK: true}}); err != nil {
		log.Warn("send join reply", zap.Error(err))
		return
	}
	log.Info("member joined", zap.String("room", first.Join.Room))

	// outbound: room broadcasts to this member
	go func() {
		for msg := range inbox {
			if err := ch.Send(chat.ServerFrame{Message: &msg}); err != nil {
				return
			}
		}
	}()

	// inbound: this member's messages to the room
	for frame, err := range ch.Messages() {
		if err != nil {
			log.Warn("recv", zap.Error(err))
			return
		}
		if frame.Message == nil {
			continue
		}
		rooms.Broadcast(first.Join.Room, *frame.Message)
	}
}

func fatalf(format string, a ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
