package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"swarm-defense/internal/api"
	"swarm-defense/internal/audio"
	"swarm-defense/internal/config"
	"swarm-defense/internal/game"
	"swarm-defense/internal/peer"
	"swarm-defense/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  SWARM DEFENSE")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	simCfg := appConfig.Sim
	serverCfg := appConfig.Server

	role, err := peer.ParseRole(appConfig.Net.Role)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if role == peer.RoleJoin && appConfig.Net.PeerAddr == "" {
		log.Fatal("❌ PEER_ADDR is required when PEER_ROLE=join")
	}

	// Peer link (two-player only). The engine must see a nil Peer in
	// single player, not a nil *Link.
	var link *peer.Link
	var gamePeer game.Peer
	if role != peer.RoleNone {
		link = peer.NewLink(appConfig.Net)
		link.OnSent = func(n uint32) { api.RecordPeerEliminations("sent", n) }
		link.OnReceived = func(n uint32) { api.RecordPeerEliminations("received", n) }
		link.OnStatus = api.SetPeerConnected
		gamePeer = link
		log.Printf("🔗 Two-player mode: %s", role)
	} else {
		log.Println("👤 Single-player mode")
	}

	log.Printf("🎮 Config: %d TPS, %.0fx%.0f screen, %d health, speed %.1f",
		simCfg.TickRate, simCfg.ScreenWidth, simCfg.ScreenHeight, simCfg.StartHealth, simCfg.EnemySpeed)

	engine := game.NewEngine(game.EngineConfigFrom(simCfg, gamePeer))

	if serverCfg.EventLogPath != "" {
		if err := engine.StartEventLog(serverCfg.EventLogPath); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", serverCfg.EventLogPath)
		}
	}

	if serverCfg.DebugServer {
		api.StartDebugServer(api.DefaultObservabilityConfig())
	}

	deck := audio.NewDeck(appConfig.Audio)

	renderer := render.New(render.Options{
		Width:    serverCfg.FrameWidth,
		Height:   serverCfg.FrameHeight,
		FontPath: serverCfg.FontPath,
	})

	routerCfg := api.RouterConfig{
		Engine:     engine,
		Renderer:   renderer,
		AdminToken: serverCfg.AdminToken,
	}
	if link != nil {
		routerCfg.PeerStats = link.Stats
		if role == peer.RoleHost {
			routerCfg.PeerHandler = link.Handler()
		}
	}
	server := api.NewServer(routerCfg)
	spectators := server.Spectators()

	engine.OnKill = func(enemy game.EnemySnapshot, cause game.KillCause) {
		api.RecordKill(cause)
		spectators.OnKill(enemy, cause)
		switch cause {
		case game.CauseClick:
			deck.Play(audio.CueHit)
		case game.CauseWeapon:
			deck.Play(audio.CueExplosion)
		}
	}
	engine.OnBreach = func(health int) {
		deck.Play(audio.CueExplosion)
		spectators.OnBreach(health)
	}
	engine.OnGameOver = func(summary game.Summary) {
		api.RecordGameOver()
		deck.Play(audio.CueLose)
		spectators.OnGameOver(summary)
		log.Printf("💀 Game over: score %d, coins %d", summary.Score, summary.Coins)
	}
	statsEvery := uint64(max(simCfg.TickRate, 1))
	engine.OnTick = func(rep game.TickReport) {
		api.RecordTick(rep)
		deck.Advance(rep.Elapsed)
		if rep.Tick%statsEvery == 0 {
			api.UpdateEventLogStats(engine.EventLogCounts())
		}
	}

	engine.Start()
	log.Println("✅ Game Engine started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if role == peer.RoleJoin {
		go func() {
			if err := link.Join(ctx); err != nil && ctx.Err() == nil {
				log.Printf("⚠️ Peer join stopped: %v", err)
			}
		}()
	}

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		if role == peer.RoleHost {
			log.Printf("🔗 Waiting for peer on ws://localhost%s%s", addr, appConfig.Net.PeerPath)
		}
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	if link != nil {
		link.Close()
	}
	engine.Stop()
	engine.StopEventLog()
	if err := deck.Close(); err != nil {
		log.Printf("⚠️ %v", err)
	}
	log.Println("👋 Goodbye!")
}
