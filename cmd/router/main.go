package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/defistate/swap-router-go/cmd/router/config"
	"github.com/defistate/swap-router-go/engine"
	"github.com/defistate/swap-router-go/pools"
	"github.com/defistate/swap-router-go/router"
	"github.com/defistate/swap-router-go/snapshot"
)

func main() {
	rootLogHandler := slog.NewJSONHandler(os.Stderr, nil)
	rootLogger := slog.New(rootLogHandler)
	close := func() {
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		close()
	}

	cache := snapshot.New(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	key := snapshot.Key{ChainID: cfg.ChainID, ProtocolVersion: cfg.ProtocolVersion, Flags: "file"}

	snap, ok := cache.Get(key)
	if !ok {
		snap, err = loadSnapshot(cfg.SnapshotFile)
		if err != nil {
			rootLogger.Error("Failed to load snapshot", "file", cfg.SnapshotFile, "error", err)
			close()
		}
		cache.Put(key, snap)
	}

	r, err := router.NewRouter(rootLogger.With("component", "router"), prometheus.DefaultRegisterer)
	if err != nil {
		rootLogger.Error("Failed to initialize router", "error", err)
		close()
	}

	tokenIn, ok := findToken(snap, common.HexToAddress(cfg.TokenIn))
	if !ok {
		rootLogger.Error("tokenIn not present in snapshot", "token", cfg.TokenIn)
		close()
	}
	tokenOut, ok := findToken(snap, common.HexToAddress(cfg.TokenOut))
	if !ok {
		rootLogger.Error("tokenOut not present in snapshot", "token", cfg.TokenOut)
		close()
	}

	amount, ok := new(big.Int).SetString(cfg.AmountRaw, 10)
	if !ok {
		rootLogger.Error("amountRaw is not a decimal integer", "amount", cfg.AmountRaw)
		close()
	}

	kind := engine.GivenIn
	if cfg.Kind == "GIVEN_OUT" {
		kind = engine.GivenOut
	}

	paths, err := r.GetPathsWithPools(tokenIn, tokenOut, kind, amount, snap.Pools, snap.Buffers, cfg.ProtocolVersion, router.Options{
		MaxHops:          cfg.MaxHops,
		MaxPaths:         cfg.MaxPaths,
		CurrentTimestamp: snap.Timestamp,
	})
	if err != nil {
		rootLogger.Error("Routing failed", "error", err)
		close()
	}
	if len(paths) == 0 {
		rootLogger.Error("No route", "tokenIn", cfg.TokenIn, "tokenOut", cfg.TokenOut)
		close()
	}

	result, err := router.AssembleResult(paths, kind)
	if err != nil {
		rootLogger.Error("Failed to assemble result", "error", err)
		close()
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		rootLogger.Error("Failed to encode result", "error", err)
		close()
	}
}

func loadConfig() (*config.RouterConfig, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}

// snapshotFile is the on-disk JSON shape of a snapshot.
type snapshotFile struct {
	Timestamp uint64              `json:"timestamp"`
	Pools     []*pools.Pool       `json:"pools"`
	Buffers   []*pools.BufferPool `json:"buffers,omitempty"`
}

func loadSnapshot(path string) (*snapshot.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f snapshotFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &snapshot.Snapshot{
		Timestamp: f.Timestamp,
		Pools:     f.Pools,
		Buffers:   f.Buffers,
	}, nil
}

// findToken resolves full token metadata (decimals included) from the
// snapshot's pool token lists.
func findToken(snap *snapshot.Snapshot, addr common.Address) (pools.Token, bool) {
	for _, p := range snap.Pools {
		for i := range p.Tokens {
			if p.Tokens[i].Address == addr {
				return p.Tokens[i].Token, true
			}
		}
	}
	for _, b := range snap.Buffers {
		if b.WrappedToken.Address == addr {
			return b.WrappedToken, true
		}
		if b.UnderlyingToken.Address == addr {
			return b.UnderlyingToken, true
		}
	}
	return pools.Token{}, false
}
