package platform

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/lib/pq" // postgres driver

	_ "github.com/txn2/chat-platform/internal/apidocs" // register swagger docs
	"github.com/txn2/chat-platform/pkg/analytics"
	analyticspg "github.com/txn2/chat-platform/pkg/analytics/postgres"
	"github.com/txn2/chat-platform/pkg/api"
	"github.com/txn2/chat-platform/pkg/auth"
	"github.com/txn2/chat-platform/pkg/chat"
	chatpg "github.com/txn2/chat-platform/pkg/chat/postgres"
	"github.com/txn2/chat-platform/pkg/database/migrate"
	"github.com/txn2/chat-platform/pkg/feedback"
	feedbackpg "github.com/txn2/chat-platform/pkg/feedback/postgres"
	"github.com/txn2/chat-platform/pkg/generation"
	"github.com/txn2/chat-platform/pkg/health"
	mwhttp "github.com/txn2/chat-platform/pkg/http"
	"github.com/txn2/chat-platform/pkg/mcptools"
	"github.com/txn2/chat-platform/pkg/snowflake"
	"github.com/txn2/chat-platform/pkg/user"
	userpg "github.com/txn2/chat-platform/pkg/user/postgres"
)

// MCPPath is where the MCP streamable HTTP endpoint is mounted.
const MCPPath = "/mcp"

// Platform is the assembled chat service.
type Platform struct {
	config    *Config
	lifecycle *Lifecycle
	health    *health.Checker

	db  *sql.DB
	ids *snowflake.Generator

	users     user.Store
	chats     chat.Store
	feedbacks feedback.Store
	activity  analytics.Store
	generator generation.Generator

	authenticator auth.Authenticator
	accounts      *user.Service
	conversations *chat.Service
	ratings       *feedback.Service
	analytics     *analytics.Service
	mcpServer     *mcp.Server

	handler http.Handler
}

// New creates a platform from cfg. Nothing runs until Start.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Platform, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &Options{Version: "dev", Now: time.Now}
	for _, opt := range opts {
		opt(options)
	}

	p := &Platform{
		config:    cfg,
		lifecycle: NewLifecycle(),
		health:    health.NewChecker(),
	}

	ids, err := snowflake.New(cfg.Snowflake.NodeID)
	if err != nil {
		return nil, fmt.Errorf("creating id generator: %w", err)
	}
	p.ids = ids

	if err := p.initStores(ctx, options); err != nil {
		return nil, err
	}
	if err := p.initGenerator(ctx, options); err != nil {
		p.closeDB()
		return nil, err
	}
	if err := p.initServices(options); err != nil {
		p.closeDB()
		return nil, err
	}
	p.initLifecycle()
	p.handler = p.buildHandler(options.Version)
	return p, nil
}

// initStores opens PostgreSQL stores when a connection or DSN is configured,
// otherwise in-memory stores.
func (p *Platform) initStores(ctx context.Context, opts *Options) error {
	db := opts.DB
	if db == nil && p.config.Database.DSN != "" {
		opened, err := OpenDB(ctx, p.config.Database)
		if err != nil {
			return err
		}
		db = opened
		p.db = opened
	}

	if db == nil {
		slog.Warn("no database configured, using in-memory stores")
		p.users = user.NewMemoryStore()
		p.chats = chat.NewMemoryStore()
		p.feedbacks = feedback.NewMemoryStore()
		p.activity = analytics.NewMemoryStore()
		return nil
	}

	if !p.config.Database.SkipMigrations {
		if err := migrate.Run(db); err != nil {
			p.closeDB()
			return err
		}
	}

	p.users = userpg.New(db)
	p.chats = chatpg.New(db)
	p.feedbacks = feedbackpg.New(db)
	p.activity = analyticspg.New(db)
	p.health.AddProbe("database", db.PingContext)
	return nil
}

// OpenDB opens a PostgreSQL pool from cfg and verifies it with a ping.
func OpenDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is not configured")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

func (p *Platform) closeDB() {
	if p.db != nil {
		_ = p.db.Close()
	}
}

func (p *Platform) initGenerator(ctx context.Context, opts *Options) error {
	if opts.Generator != nil {
		p.generator = opts.Generator
		return nil
	}
	gen, err := newGenerator(ctx, p.config.Generation)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	p.generator = gen
	return nil
}

func (p *Platform) initServices(opts *Options) error {
	cfg := p.config

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Issuer:     cfg.Auth.Issuer,
		SigningKey: []byte(cfg.Auth.JWTSecret),
		TTL:        cfg.Auth.AccessTokenTTL,
		Now:        opts.Now,
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	p.authenticator = auth.NewChainedAuthenticator(tokens, auth.NewAPIKeyAuthenticator(cfg.Auth.APIKeys))

	p.analytics = analytics.NewService(p.activity, p.chats, p.users, p.ids, analytics.WithClock(opts.Now))
	p.accounts = user.NewService(p.users, p.ids, tokens,
		user.WithActivityRecorder(p.analytics),
		user.WithServiceClock(opts.Now),
	)

	resolver := chat.NewResolver(p.accounts, p.chats, p.ids,
		chat.WithSessionWindow(cfg.Chat.SessionWindow),
		chat.WithResolverClock(opts.Now),
	)
	orchestrator := chat.NewOrchestrator(p.chats, p.ids, p.generator, chat.OrchestratorConfig{
		SystemPrompt: cfg.Chat.SystemPrompt,
		DefaultModel: cfg.Chat.DefaultModel,
		MaxTokens:    cfg.Chat.MaxTokens,
	}, chat.WithOrchestratorClock(opts.Now))
	p.conversations = chat.NewService(resolver, orchestrator, p.chats)
	p.ratings = feedback.NewService(p.feedbacks, p.conversations, p.ids, feedback.WithClock(opts.Now))
	return nil
}

// initLifecycle registers startup and shutdown steps in dependency order.
func (p *Platform) initLifecycle() {
	if p.db != nil {
		p.lifecycle.RegisterCloser("database", p.db)
	}
	p.lifecycle.Append("stores", nil, func(context.Context) error {
		for _, c := range []Closer{p.activity, p.feedbacks, p.chats, p.users} {
			if err := c.Close(); err != nil {
				return err
			}
		}
		return nil
	})

	if admin := p.config.Auth.BootstrapAdmin; admin != nil {
		p.lifecycle.Append("bootstrap admin", func(ctx context.Context) error {
			return p.accounts.EnsureAdmin(ctx, user.SignUpInput{
				Email:    admin.Email,
				Password: admin.Password,
				Name:     admin.Name,
			})
		}, nil)
	}

	p.lifecycle.Append("activity cleanup", func(context.Context) error {
		p.analytics.StartCleanupRoutine(p.config.Analytics.CleanupInterval, p.config.Analytics.Retention())
		return nil
	}, func(context.Context) error {
		return p.analytics.Close()
	})

	p.lifecycle.Append("readiness", func(context.Context) error {
		p.health.SetReady()
		return nil
	}, func(context.Context) error {
		p.health.SetDraining()
		return nil
	})
}

func (p *Platform) buildHandler(version string) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(api.BasePath+"/", api.NewHandler(api.Deps{
		Accounts:      p.accounts,
		Conversations: p.conversations,
		Ratings:       p.ratings,
		Reports:       p.analytics,
		Authenticator: p.authenticator,
		Heartbeat:     p.config.Server.SSEHeartbeat,
	}))

	mux.HandleFunc("GET /healthz", p.health.LivenessHandler())
	mux.HandleFunc("GET /readyz", p.health.ReadinessHandler())

	if p.config.Server.MCPEnabled {
		p.mcpServer = mcptools.NewServer(p.config.Server.Name, version, mcptools.New(p.conversations, p.authenticator))
		server := p.mcpServer
		streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
		mux.Handle(MCPPath, mwhttp.RequireAuth(p.authenticator)(streamable))
	}

	if p.config.Server.SwaggerEnabled {
		mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	return mwhttp.Chain(mux, mwhttp.RequestID, mwhttp.AccessLog)
}

// Start runs the startup steps and marks the platform ready.
func (p *Platform) Start(ctx context.Context) error {
	return p.lifecycle.Start(ctx)
}

// Stop marks the platform draining and releases its resources.
func (p *Platform) Stop(ctx context.Context) error {
	return p.lifecycle.Stop(ctx)
}

// Close releases resources of a platform that was never started.
func (p *Platform) Close() error {
	if p.lifecycle.IsStarted() {
		return p.Stop(context.Background())
	}
	p.closeDB()
	return nil
}

// Handler returns the root HTTP handler.
func (p *Platform) Handler() http.Handler {
	return p.handler
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Health returns the readiness checker.
func (p *Platform) Health() *health.Checker {
	return p.health
}

// MCPServer returns the MCP server, or nil when MCP is disabled.
func (p *Platform) MCPServer() *mcp.Server {
	return p.mcpServer
}
