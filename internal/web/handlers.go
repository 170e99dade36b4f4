package web

import (
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"askpdf/internal/models"
	"askpdf/internal/rag"
)

const (
	missingCredentialMsg = "Please insert OpenAI API Key."
	noDocumentMsg        = "Please upload a PDF first."
	emptyQuestionMsg     = "Please enter a question about your PDF."
)

type pageData struct {
	Filename      string
	Chunks        int
	HasDocument   bool
	HasCredential bool
	State         string
	Question      string
	Answer        template.HTML
	Usage         *models.Usage
	Success       string
	Warning       string
	Error         string
}

type queryRequest struct {
	Question string `json:"question"`
	APIKey   string `json:"api_key"`
}

type queryResponse struct {
	Answer  string        `json:"answer"`
	Usage   models.Usage  `json:"usage"`
	Sources []sourceChunk `json:"sources,omitempty"`
}

type sourceChunk struct {
	ChunkID int     `json:"chunk_id"`
	Score   float32 `json:"score"`
	Text    string  `json:"text"`
}

// Index renders the page for the current session state.
func (s *Server) Index(c *gin.Context) {
	us := session(c)
	data := s.page(us)
	if answer, err := us.rag.LastAnswer(); answer != nil {
		s.fillAnswer(&data, answer)
	} else if err != nil {
		setMessage(&data, err)
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// Upload loads the posted file into the session, replacing any previous document.
func (s *Server) Upload(c *gin.Context) {
	us := session(c)
	doc, err := readUpload(c)
	if err != nil {
		page := s.page(us)
		page.Error = "Could not read the upload: " + err.Error()
		c.HTML(http.StatusBadRequest, "index.html", page)
		return
	}

	status := http.StatusOK
	err = us.rag.Load(c.Request.Context(), s.credential(us, c.PostForm("api_key")), doc.Filename, doc.Data)
	page := s.page(us)
	if err != nil {
		status = statusFor(err)
		setMessage(&page, err)
	} else {
		page.Success = "Document loaded. Ask a question about it."
	}
	c.HTML(status, "index.html", page)
}

// Ask answers the submitted question against the session's document.
func (s *Server) Ask(c *gin.Context) {
	us := session(c)
	credential := s.credential(us, c.PostForm("api_key"))
	question := c.PostForm("question")

	page := s.page(us)
	page.Question = question
	if question == "" {
		page.Warning = emptyQuestionMsg
		c.HTML(http.StatusBadRequest, "index.html", page)
		return
	}

	answer, err := us.rag.Ask(c.Request.Context(), credential, question)
	page.State = us.rag.State().String()
	if err != nil {
		setMessage(&page, err)
		c.HTML(statusFor(err), "index.html", page)
		return
	}
	s.fillAnswer(&page, answer)
	c.HTML(http.StatusOK, "index.html", page)
}

// APIUpload is the JSON variant of Upload.
func (s *Server) APIUpload(c *gin.Context) {
	us := session(c)
	doc, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload: " + err.Error()})
		return
	}
	if err := us.rag.Load(c.Request.Context(), s.credential(us, c.PostForm("api_key")), doc.Filename, doc.Data); err != nil {
		c.JSON(statusFor(err), errorBody(err))
		return
	}

	name, chunks, _ := us.rag.Document()
	c.JSON(http.StatusCreated, gin.H{
		"filename": name,
		"chunks":   chunks,
		"state":    us.rag.State().String(),
	})
}

// APIQuery is the JSON variant of Ask.
func (s *Server) APIQuery(c *gin.Context) {
	us := session(c)

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"warning": emptyQuestionMsg})
		return
	}

	answer, err := us.rag.Ask(c.Request.Context(), s.credential(us, req.APIKey), req.Question)
	if err != nil {
		c.JSON(statusFor(err), errorBody(err))
		return
	}

	resp := queryResponse{Answer: answer.Text, Usage: answer.Usage}
	for _, src := range answer.Sources {
		resp.Sources = append(resp.Sources, sourceChunk{ChunkID: src.ChunkID, Score: src.Score, Text: src.Content})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) page(us *userSession) pageData {
	filename, chunks, ok := us.rag.Document()
	return pageData{
		Filename:      filename,
		Chunks:        chunks,
		HasDocument:   ok,
		HasCredential: us.getCredential() != "" || s.defaultCredential != "",
		State:         us.rag.State().String(),
	}
}

func (s *Server) fillAnswer(page *pageData, answer *models.Answer) {
	rendered, err := renderMarkdown(answer.Text)
	if err != nil {
		log.Warn().Err(err).Msg("Could not render answer as markdown")
		rendered = template.HTML(template.HTMLEscapeString(answer.Text))
	}
	page.Success = "Here's the answer:"
	page.Answer = rendered
	usage := answer.Usage
	page.Usage = &usage
}

func readUpload(c *gin.Context) (models.Document, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	file, err := c.FormFile("pdf")
	if err != nil {
		return models.Document{}, err
	}
	f, err := file.Open()
	if err != nil {
		return models.Document{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.Document{}, err
	}
	return models.Document{Filename: file.Filename, Data: data}, nil
}

func setMessage(page *pageData, err error) {
	switch {
	case errors.Is(err, rag.ErrMissingCredential):
		page.Warning = missingCredentialMsg
	case errors.Is(err, rag.ErrNoDocument):
		page.Warning = noDocumentMsg
	case errors.Is(err, rag.ErrMalformedDocument):
		page.Error = "The uploaded file is not a readable PDF."
	case errors.Is(err, rag.ErrEmptyDocument):
		page.Error = "No text could be extracted from the uploaded file."
	case errors.Is(err, rag.ErrRemoteService):
		page.Error = "The AI service request failed: " + err.Error()
	default:
		page.Error = err.Error()
	}
}

func statusFor(err error) int {
	switch {
	case rag.IsWarning(err):
		return http.StatusBadRequest
	case errors.Is(err, rag.ErrMalformedDocument), errors.Is(err, rag.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rag.ErrRemoteService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) gin.H {
	var page pageData
	setMessage(&page, err)
	if page.Warning != "" {
		return gin.H{"warning": page.Warning}
	}
	return gin.H{"error": page.Error}
}
