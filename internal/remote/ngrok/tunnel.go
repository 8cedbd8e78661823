package ngrok

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/copilot-bot/copilot/internal/config"
	ngrok "golang.ngrok.com/ngrok"
	ngrokcfg "golang.ngrok.com/ngrok/config"
)

var ErrNoLocalAddr = errors.New("ngrok local address is required")

type Options struct {
	LocalAddr     string
	Authtoken     string
	Region        string
	Domain        string
	BasicAuthUser string
	BasicAuthPass string
}

// OptionsFrom builds the tunnel options exposing the status server listening on port.
func OptionsFrom(cfg config.NgrokCfg, port int) Options {
	return Options{
		LocalAddr:     fmt.Sprintf("http://127.0.0.1:%d", port),
		Authtoken:     cfg.Authtoken,
		Region:        cfg.Region,
		Domain:        cfg.Domain,
		BasicAuthUser: cfg.BasicAuthUser,
		BasicAuthPass: cfg.BasicAuthPass,
	}
}

func (o Options) endpointOptions() []ngrokcfg.HTTPEndpointOption {
	httpOpts := make([]ngrokcfg.HTTPEndpointOption, 0, 2)
	if o.Domain != "" {
		httpOpts = append(httpOpts, ngrokcfg.WithDomain(o.Domain))
	}
	if o.BasicAuthUser != "" && o.BasicAuthPass != "" {
		httpOpts = append(httpOpts, ngrokcfg.WithBasicAuth(o.BasicAuthUser, o.BasicAuthPass))
	}
	return httpOpts
}

func (o Options) connectOptions() []ngrok.ConnectOption {
	connectOpts := make([]ngrok.ConnectOption, 0, 2)
	if o.Authtoken != "" {
		connectOpts = append(connectOpts, ngrok.WithAuthtoken(o.Authtoken))
	} else if os.Getenv("NGROK_AUTHTOKEN") != "" {
		connectOpts = append(connectOpts, ngrok.WithAuthtokenFromEnv())
	}
	if o.Region != "" {
		connectOpts = append(connectOpts, ngrok.WithRegion(o.Region))
	}
	return connectOpts
}

type Tunnel struct {
	forwarder ngrok.Forwarder
}

// Start forwards a public ngrok endpoint to the local status server.
func Start(ctx context.Context, opts Options) (*Tunnel, error) {
	if opts.LocalAddr == "" {
		return nil, ErrNoLocalAddr
	}

	backend, err := url.Parse(opts.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid local address %q: %w", opts.LocalAddr, err)
	}

	fwd, err := ngrok.ListenAndForward(ctx, backend, ngrokcfg.HTTPEndpoint(opts.endpointOptions()...), opts.connectOptions()...)
	if err != nil {
		return nil, fmt.Errorf("starting ngrok tunnel: %w", err)
	}

	return &Tunnel{forwarder: fwd}, nil
}

func (t *Tunnel) URL() string {
	if t == nil || t.forwarder == nil {
		return ""
	}
	return t.forwarder.URL()
}

func (t *Tunnel) Close() error {
	if t == nil || t.forwarder == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.forwarder.CloseWithContext(ctx)
}
