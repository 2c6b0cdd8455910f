package server

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
)

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type createCommentRequest struct {
	Body string `json:"body"`
}

type voteRequest struct {
	Kind domain.VoteKind `json:"kind"`
}

type postResponse struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	CreatedAt time.Time `json:"created_at"`
}

type commentResponse struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	CreatedAt time.Time `json:"created_at"`
}

func toPostResponse(p *domain.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Body:      p.Body,
		Likes:     p.Likes,
		Dislikes:  p.Dislikes,
		CreatedAt: p.CreatedAt,
	}
}

func toCommentResponse(cm *domain.Comment) commentResponse {
	return commentResponse{
		ID:        cm.ID,
		PostID:    cm.PostID,
		AuthorID:  cm.AuthorID,
		Body:      cm.Body,
		Likes:     cm.Likes,
		Dislikes:  cm.Dislikes,
		CreatedAt: cm.CreatedAt,
	}
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed. Range clamping happens in the application layer.
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func (s *Server) handleCreatePost(c echo.Context) error {
	authorID, err := employeeID(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	post, err := s.app.CreatePost(c.Request().Context(), authorID, req.Title, req.Body)
	if err != nil {
		return err
	}

	return c.JSON(201, toPostResponse(post))
}

func (s *Server) handleGetPost(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	post, err := s.app.GetPost(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(200, toPostResponse(post))
}

func (s *Server) handleListPosts(c echo.Context) error {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	posts, err := s.app.ListPosts(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	out := make([]postResponse, len(posts))
	for i := range posts {
		out[i] = toPostResponse(&posts[i])
	}
	return c.JSON(200, out)
}

func (s *Server) handleCreateComment(c echo.Context) error {
	authorID, err := employeeID(c)
	if err != nil {
		return err
	}

	postID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	comment, err := s.app.CreateComment(c.Request().Context(), postID, authorID, req.Body)
	if err != nil {
		return err
	}

	return c.JSON(201, toCommentResponse(comment))
}

func (s *Server) handleListComments(c echo.Context) error {
	postID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	comments, err := s.app.ListComments(c.Request().Context(), postID)
	if err != nil {
		return err
	}

	out := make([]commentResponse, len(comments))
	for i := range comments {
		out[i] = toCommentResponse(&comments[i])
	}
	return c.JSON(200, out)
}

func (s *Server) handlePostVote(c echo.Context) error {
	voterID, err := employeeID(c)
	if err != nil {
		return err
	}

	postID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	result, err := s.app.TogglePostVote(c.Request().Context(), postID, req.Kind, voterID)
	if err != nil {
		return err
	}

	return c.JSON(200, result)
}

func (s *Server) handleCommentVote(c echo.Context) error {
	voterID, err := employeeID(c)
	if err != nil {
		return err
	}

	commentID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	result, err := s.app.ToggleCommentVote(c.Request().Context(), commentID, req.Kind, voterID)
	if err != nil {
		return err
	}

	return c.JSON(200, result)
}
