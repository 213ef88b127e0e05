// Command blockpush starts the block-pushing puzzle server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, the WebSocket and an /mcp endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from the environment (and an optional .env file); flags
// override them.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/api"
	"github.com/wricardo/blockpush/config"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/service"
	"github.com/wricardo/blockpush/game/session"
	"github.com/wricardo/blockpush/identity"
	"github.com/wricardo/blockpush/transport/mcp"
	"github.com/wricardo/blockpush/transport/websocket"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Blockpush Server"
)

// Flags override the environment configuration when set
var (
	port         = flag.Int("port", 8085, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	levelDir     = flag.String("level-dir", "levels", "Directory containing level_<n>.json files")
	sessionDir   = flag.String("session-dir", "", "Directory for saved sessions (empty disables saving)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

const (
	cleanupInterval  = time.Hour
	shutdownTimeout  = 10 * time.Second
	externalProbeURL = "http://localhost:8085"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  USER_STORE=memory|mongo  RESULT_STORE=memory|sqlite|redis  JWT_SECRET  MONGO_URI  REDIS_ADDR  SQLITE_PATH\n")
	}
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("[APP] invalid configuration")
	}
	applyFlags(cfg)

	mode := "server"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	log.Infof("[APP] starting %s v%s (mode: %s)", AppName, Version, mode)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("[APP] failed to initialize services")
	}
	defer a.Close()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		// stdout carries the MCP protocol
		log.SetOutput(os.Stderr)
		runStdioMCP(a)
	case "server", "http":
		runHTTPServer(ctx, a)
	default:
		log.Fatalf("[APP] unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// applyFlags copies explicitly set flags over the environment values
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "host":
			cfg.Host = *host
		case "level-dir":
			cfg.LevelDir = *levelDir
		case "session-dir":
			cfg.SessionDir = *sessionDir
		case "ngrok":
			cfg.NgrokEnabled = *ngrokEnabled
		case "ngrok-auth":
			cfg.NgrokAuth = *ngrokAuth
		case "ngrok-domain":
			cfg.NgrokDomain = *ngrokDomain
		}
	})
}

// app holds the wired services and the resources to release on shutdown
type app struct {
	cfg      *config.Config
	levels   *level.Manager
	sessions *session.Manager
	store    results.Store
	users    *identity.Service
	hub      *websocket.Hub
	game     service.GameService

	closers []func()
}

// newApp connects the configured stores and wires the game service, the
// identity service and the WebSocket hub together.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	levels, err := level.NewManager(cfg.LevelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}
	a.levels = levels

	var redisClient *redis.Client
	if cfg.ResultStore == config.BackendRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
	}

	store, err := openResultStore(cfg, redisClient)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, func() { store.Close() })

	users, err := openUserRepo(ctx, a, cfg)
	if err != nil {
		return nil, err
	}

	var revoker identity.Revoker = identity.NewMemoryRevoker()
	if redisClient != nil {
		revoker = identity.NewRedisRevoker(redisClient, cfg.RedisPrefix)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("[AUTH] JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	a.users = identity.NewService(users, identity.NewJwtService(secret, cfg.JWTIssuer), revoker, store,
		identity.Config{TokenTTL: cfg.TokenTTL})

	a.hub = websocket.NewHub(nil)
	go a.hub.Run()
	a.closers = append(a.closers, a.hub.Stop)

	opts := session.Options{
		TickInterval: cfg.TickInterval(),
		Sink:         service.NewStoreSink(store),
		Notifier:     a.hub,
	}
	if cfg.SessionDir != "" {
		persistence, err := session.NewFilePersistence(cfg.SessionDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		a.sessions = session.NewManagerWithPersistence(persistence, opts)
		if err := a.sessions.LoadPersistedSessions(); err != nil {
			log.WithError(err).Warn("[SESSION] failed to load persisted sessions")
		}
	} else {
		a.sessions = session.NewManager(opts)
	}
	// runs before the hub and stores close
	a.closers = append(a.closers, a.sessions.CloseAll)

	a.game = service.NewGameService(a.sessions, levels, store)
	a.hub.SetInputHandler(func(ctx context.Context, sessionID, direction string) error {
		_, err := a.game.Move(ctx, sessionID, direction)
		return err
	})

	go sessionCleanupRoutine(ctx, a.sessions, cfg.SessionTTL)

	ok = true
	return a, nil
}

func openResultStore(cfg *config.Config, redisClient *redis.Client) (results.Store, error) {
	switch cfg.ResultStore {
	case config.BackendSQLite:
		store, err := results.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite result store: %w", err)
		}
		log.WithField("path", cfg.SQLitePath).Info("[RESULT] using sqlite result store")
		return store, nil
	case config.BackendRedis:
		log.WithField("addr", cfg.RedisAddr).Info("[RESULT] using redis result store")
		return results.NewRedisStore(redisClient, cfg.RedisPrefix), nil
	default:
		log.Info("[RESULT] using in-memory result store")
		return results.NewMemoryStore(), nil
	}
}

func openUserRepo(ctx context.Context, a *app, cfg *config.Config) (identity.Repository, error) {
	if cfg.UserStore != config.BackendMongo {
		log.Info("[AUTH] using in-memory user store")
		return identity.NewMemoryRepo(), nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(ctx)
	})
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo at %s: %w", cfg.MongoURI, err)
	}

	repo, err := identity.NewMongoRepo(ctx, client, cfg.MongoDB, "users")
	if err != nil {
		return nil, err
	}
	log.WithField("db", cfg.MongoDB).Info("[AUTH] using mongo user store")
	return repo, nil
}

// handler returns the API with the MCP endpoint mounted; MCP tool calls go
// through the REST API at baseURL.
func (a *app) handler(baseURL string) http.Handler {
	srv := api.NewServer(a.game, a.users, a.hub)
	srv.Handle("/mcp", mcp.NewClient(baseURL).Handler())
	return srv
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// runHTTPServer serves until ctx is cancelled. With ngrok enabled the same
// handler is also served through a public tunnel.
func runHTTPServer(ctx context.Context, a *app) {
	addr := a.cfg.Addr()
	handler := a.handler("http://" + addr)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Infof("[APP] HTTP server listening on %s", addr)
		log.Infof("[APP] REST API: http://%s/api", addr)
		log.Infof("[APP] WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Infof("[APP] MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("[APP] HTTP server failed")
		}
	}()

	if a.cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, a.cfg, handler)
		}()
	}

	<-ctx.Done()
	log.Info("[APP] shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("[APP] HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("[APP] server stopped")
}

func runNgrok(ctx context.Context, cfg *config.Config, handler http.Handler) {
	authToken := cfg.NgrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		log.Warn("[APP] ngrok enabled but no auth token provided (use -ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.Infof("[APP] using custom ngrok domain: %s", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("[APP] failed to start ngrok tunnel")
		return
	}
	defer tun.Close()

	url := tun.URL()
	log.Infof("[APP] ngrok tunnel established: %s", url)
	log.Infof("[APP]   REST API (ngrok): %s/api", url)
	log.Infof("[APP]   WebSocket (ngrok): %s/ws?session=<session_id>", url)
	log.Infof("[APP]   MCP endpoint (ngrok): %s/mcp", url)

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Debug("[APP] ngrok server stopped")
	}
	log.Info("[APP] ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Infof("[SESSION] cleaned up %d expired sessions", removed)
			}
		}
	}
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the default port, otherwise it serves the API on a random loopback port.
func runStdioMCP(a *app) {
	baseURL := externalProbeURL

	probe := &http.Client{Timeout: 2 * time.Second}
	resp, err := probe.Get(externalProbeURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Infof("[MCP] external API server found at %s", externalProbeURL)
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.WithError(err).Fatal("[MCP] failed to get an available port")
		}
		baseURL = "http://" + listener.Addr().String()
		log.Infof("[MCP] starting internal HTTP server on %s", listener.Addr())

		internal := &http.Server{Handler: a.handler(baseURL)}
		go func() {
			if err := internal.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("[MCP] internal HTTP server error")
			}
		}()
		defer internal.Close()
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Infof("[MCP] stdio server ready (API at %s)", baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.WithError(err).Fatal("[MCP] stdio server error")
	}
}
