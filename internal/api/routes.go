package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mystopwatch/backend/internal/session"
	"mystopwatch/backend/internal/stopwatch"
	"mystopwatch/backend/internal/store"
	"mystopwatch/backend/internal/util"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	SilentDB       bool
	Layout         stopwatch.Layout
	Tick           time.Duration
	AllowedOrigins []string
	// Clock overrides the system clock, mainly for tests.
	Clock stopwatch.Clock
}

// Server wires HTTP handlers with the stopwatch session and its persistence.
type Server struct {
	db             *store.Database
	session        *session.Session
	notifier       *Notifier
	ticker         *Ticker
	clock          stopwatch.Clock
	allowedOrigins []string
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = stopwatch.SystemClock
	}

	sess, err := session.New(session.Config{
		Clock:     clock,
		Layout:    cfg.Layout,
		Persister: db,
		IsEmpty: func(err error) bool {
			return errors.Is(err, store.ErrNoSnapshot)
		},
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	notifier := NewNotifier()
	sess.OnChange(func(snap session.Snapshot) {
		notifier.Broadcast(StopwatchEvent{Type: EventTransition, Stopwatch: StopwatchFromSnapshot(snap)})
	})

	server := &Server{
		db:             db,
		session:        sess,
		notifier:       notifier,
		ticker:         NewTicker(sess, notifier, cfg.Tick),
		clock:          clock,
		allowedOrigins: cfg.AllowedOrigins,
	}

	logrus.WithFields(logrus.Fields{
		"layout": sess.Formatter().Layout(),
		"tick":   server.ticker.Interval(),
		"db":     cfg.DBPath,
	}).Info("stopwatch server configured")
	return server, nil
}

// Ticker returns the periodic refresher; the caller runs it.
func (s *Server) Ticker() *Ticker {
	return s.ticker
}

// Close releases the database.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api/stopwatch")
	{
		api.GET("", s.handleGet)
		api.POST("/start", s.handleStart)
		api.POST("/pause", s.handlePause)
		api.POST("/toggle", s.handleToggle)
		api.POST("/reset", s.handleReset)
		api.GET("/stream", s.handleStream)
	}

	return r, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := util.StartTimer(s.clock)
		c.Next()
		entry := logrus.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": timer.ElapsedMs(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		Layout:         string(s.session.Formatter().Layout()),
		TickMs:         s.ticker.Interval().Milliseconds(),
		DefaultDisplay: stopwatch.DefaultTime,
	})
}

func (s *Server) handleGet(c *gin.Context) {
	c.JSON(http.StatusOK, StopwatchFromSnapshot(s.session.Snapshot()))
}

func (s *Server) handleStart(c *gin.Context) {
	s.renderTransition(c, s.session.Start)
}

func (s *Server) handlePause(c *gin.Context) {
	s.renderTransition(c, s.session.Pause)
}

func (s *Server) handleToggle(c *gin.Context) {
	s.renderTransition(c, s.session.Toggle)
}

func (s *Server) handleReset(c *gin.Context) {
	s.renderTransition(c, s.session.Reset)
}

func (s *Server) renderTransition(c *gin.Context, transition func() (session.Snapshot, error)) {
	snap, err := transition()
	if err != nil {
		if errors.Is(err, stopwatch.ErrClockUnavailable) {
			s.renderError(c, http.StatusServiceUnavailable, err)
			return
		}
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, StopwatchFromSnapshot(snap))
}

func (s *Server) handleStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn, StopwatchEvent{
		Type:      EventTick,
		Stopwatch: StopwatchFromSnapshot(s.session.Snapshot()),
		Timestamp: time.Now().UTC(),
	})
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("stopwatch websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("stopwatch websocket closed")
			} else {
				logrus.WithError(err).Warn("stopwatch websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
