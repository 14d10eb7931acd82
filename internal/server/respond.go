package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/divvyhq/divvy/internal/auth"
	"github.com/divvyhq/divvy/internal/ledger"
	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/storage"
)

// writeError maps domain errors to HTTP status codes. Anything
// unrecognized is a 500 with the detail kept out of the response.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidSplit), errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, auth.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		slog.Error("internal error", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type groupResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CreatedBy   string   `json:"created_by"`
	Members     []string `json:"members"`
	CreatedAt   int64    `json:"created_at"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		Members:     g.Members,
		CreatedAt:   g.CreatedAt,
	}
}

type instanceResponse struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
}

func toInstanceResponse(i *models.Instance) instanceResponse {
	return instanceResponse{
		ID:          i.ID,
		GroupID:     i.GroupID,
		Name:        i.Name,
		Date:        i.Date,
		Description: i.Description,
		CreatedBy:   i.CreatedBy,
		CreatedAt:   i.CreatedAt,
	}
}

type balanceResponse struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
}

func toBalanceResponses(balances []*models.Balance) []balanceResponse {
	out := make([]balanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, balanceResponse{
			FromUserID: b.FromUserID,
			ToUserID:   b.ToUserID,
			Amount:     b.Amount.String(),
		})
	}
	return out
}

// memberGroup loads the group and checks the caller belongs to it.
// Writes the error response itself and returns nil when access is
// denied.
func (s *Server) memberGroup(c *gin.Context, groupID string) *models.Group {
	group, err := s.store.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		writeError(c, err)
		return nil
	}
	if !group.HasMember(c.GetString(userIDKey)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return nil
	}
	return group
}
