package ngrok

import (
	"context"
	"errors"
	"testing"

	"github.com/copilot-bot/copilot/internal/config"
)

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(config.NgrokCfg{Region: "eu", Domain: "follow.ngrok.app", BasicAuthUser: "me", BasicAuthPass: "secret"}, 8087)
	if opts.LocalAddr != "http://127.0.0.1:8087" {
		t.Errorf("unexpected local address %s", opts.LocalAddr)
	}
	if len(opts.endpointOptions()) != 2 {
		t.Errorf("expected domain and basic auth endpoint options")
	}

	opts = OptionsFrom(config.NgrokCfg{BasicAuthUser: "me"}, 8087)
	if len(opts.endpointOptions()) != 0 {
		t.Errorf("basic auth needs both user and password")
	}
}

func TestStartRequiresLocalAddr(t *testing.T) {
	if _, err := Start(context.Background(), Options{}); !errors.Is(err, ErrNoLocalAddr) {
		t.Errorf("expected ErrNoLocalAddr, got %v", err)
	}
}

func TestNilTunnel(t *testing.T) {
	var tun *Tunnel
	if tun.URL() != "" {
		t.Errorf("expected an empty URL")
	}
	if err := tun.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
