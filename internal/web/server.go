package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"askpdf/internal/config"
	"askpdf/internal/rag"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	maxUploadBytes = 200 << 20
	sessionKey     = "session"
)

// Server serves the single-page UI and its JSON twin.
type Server struct {
	cfg               *config.Config
	rag               *rag.RAG
	sessions          *sessionStore
	defaultCredential string
	router            *gin.Engine
}

func NewServer(cfg *config.Config, r *rag.RAG) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:               cfg,
		rag:               r,
		sessions:          newSessionStore(cfg.Server.SessionTTL),
		defaultCredential: cfg.DefaultCredential(),
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.MaxMultipartMemory = maxUploadBytes
	router.SetHTMLTemplate(tmpl)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "askpdf",
		})
	})

	page := router.Group("/", s.sessionMiddleware())
	{
		page.GET("/", s.Index)
		page.POST("/upload", s.Upload)
		page.POST("/ask", s.Ask)
	}

	apiV1 := router.Group("/api/v1", s.sessionMiddleware())
	{
		apiV1.POST("/documents", s.APIUpload)
		apiV1.POST("/query", s.APIQuery)
	}

	s.router = router
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	log.Info().Str("addr", s.cfg.Server.Addr).Msg("Web UI starting")
	return s.router.Run(s.cfg.Server.Addr)
}

// sessionMiddleware attaches the caller's session, creating one (and its
// cookie) when the cookie is missing or has expired.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(sessionCookie); err == nil {
			if us, ok := s.sessions.get(id); ok {
				c.Set(sessionKey, us)
				c.Next()
				return
			}
		}

		id, us, err := s.sessions.create(s.rag)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, 0, "/", "", c.Request.TLS != nil, true)
		log.Debug().Int("sessions", s.sessions.len()).Msg("Session created")
		c.Set(sessionKey, us)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

func session(c *gin.Context) *userSession {
	return c.MustGet(sessionKey).(*userSession)
}

// credential picks the submitted key, else the one the session entered
// earlier, else the environment default.
func (s *Server) credential(us *userSession, submitted string) string {
	if submitted != "" {
		us.setCredential(submitted)
		return submitted
	}
	if c := us.getCredential(); c != "" {
		return c
	}
	return s.defaultCredential
}
