// Package app ties the Mini Store components together and manages their
// lifecycle: chain client, profile and content-store gateways, the grid
// resolver, and the install orchestrator.
package app

import (
	"context"
	"fmt"

	"github.com/deliquified/ministore/internal/catalog"
	"github.com/deliquified/ministore/internal/chain"
	"github.com/deliquified/ministore/internal/config"
	"github.com/deliquified/ministore/internal/gridstate"
	"github.com/deliquified/ministore/internal/installer"
	"github.com/deliquified/ministore/internal/ipfs"
	"github.com/deliquified/ministore/internal/profile"
	"github.com/deliquified/ministore/internal/resolver"
	"github.com/deliquified/ministore/internal/wallet"
	"github.com/deliquified/ministore/pkg/logger"
)

// Application is the assembled Mini Store backend.
type Application struct {
	log *logger.Logger

	Config    *config.Config
	Catalog   *catalog.Catalog
	Provider  wallet.Provider
	Store     *gridstate.Store
	Resolver  *resolver.Resolver
	Installer *installer.Service
}

// New builds a fully initialised application from configuration. The wallet
// provider defaults to a static provider over the configured account with
// node-managed signing; embedders replace it by passing a provider.
func New(cfg *config.Config, provider wallet.Provider, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	client, err := chain.NewClient(chain.Config{RPCURL: cfg.RPCURL, ChainID: cfg.ChainID})
	if err != nil {
		return nil, fmt.Errorf("chain client: %w", err)
	}

	if provider == nil {
		var accounts []string
		if cfg.Account != "" {
			accounts = []string{cfg.Account}
		}
		provider = wallet.NewStaticProvider(accounts, cfg.ChainID, wallet.NewNodeSigner(client))
	}

	profileGW, err := profile.NewGateway(client, log.WithField("component", "profile"))
	if err != nil {
		return nil, fmt.Errorf("profile gateway: %w", err)
	}

	contentGW, err := ipfs.NewClient(ipfs.Config{
		GatewayURL: cfg.IPFS.Gateway,
		PinURL:     cfg.IPFS.PinURL,
		PinKey:     cfg.IPFS.PinKey,
	}, log.WithField("component", "ipfs"))
	if err != nil {
		return nil, fmt.Errorf("content gateway: %w", err)
	}

	cat, err := catalog.LoadFileOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	store := gridstate.New()
	res := resolver.New(provider, profileGW, contentGW, store, log.WithField("component", "resolver"))
	inst := installer.New(provider, profileGW, contentGW, client, store, log.WithField("component", "installer"))

	return &Application{
		log:       log,
		Config:    cfg,
		Catalog:   cat,
		Provider:  provider,
		Store:     store,
		Resolver:  res,
		Installer: inst,
	}, nil
}

// Run starts the resolver's change-driven refresh loop and blocks until ctx
// is done.
func (a *Application) Run(ctx context.Context) {
	a.log.Info("mini store application started")
	a.Resolver.Run(ctx)
}
