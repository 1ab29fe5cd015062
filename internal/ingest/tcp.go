package ingest

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"

	"earbridge/internal/config"
	"earbridge/internal/link"
)

// StartTCPBridge listens for bridge connections that forward device
// notifications, one base64 chunk per line. Each connection gets its own
// framer; the buffer is cleared when the connection goes away.
func StartTCPBridge(ctx context.Context, cfg *config.Manager, pipe *Pipeline, logger *slog.Logger) {
	current := cfg.Get().Link.TCP
	if !current.Enabled {
		if logger != nil {
			logger.Info("tcp bridge disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("tcp bridge enabled", "addr", current.Addr)
	}
	ln, err := net.Listen("tcp", current.Addr)
	if err != nil {
		if logger != nil {
			logger.Error("tcp bridge listen error", "err", err)
		}
		return
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				if logger != nil {
					logger.Warn("tcp bridge accept error", "err", err)
				}
				continue
			}
			go handleBridgeConn(ctx, conn, cfg, pipe, logger)
		}
	}()
}

func handleBridgeConn(ctx context.Context, conn net.Conn, cfg *config.Manager, pipe *Pipeline, logger *slog.Logger) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	if logger != nil {
		logger.Info("device link connected", "remote", remote)
	}
	framer := link.NewFramer(cfg.Get().Link.BufferCap, logger)
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	for scanner.Scan() {
		chunk, err := link.DecodeChunk(scanner.Text())
		if err != nil {
			if logger != nil {
				logger.Warn("bad chunk on link", "err", err, "remote", remote)
			}
			continue
		}
		for _, msg := range framer.Feed(chunk) {
			pipe.HandleMessage(ctx, msg, "tcp")
		}
		select {
		case <-ctx.Done():
			framer.Reset()
			return
		default:
		}
	}
	if err := scanner.Err(); err != nil && logger != nil {
		logger.Warn("link read error", "err", err, "remote", remote)
	}
	// distinct from parse errors so callers can tell "reconnect" apart
	// from "ignore and continue"
	if logger != nil {
		logger.Info("device link disconnected", "remote", remote, "pending", framer.Pending())
	}
	framer.Reset()
}
