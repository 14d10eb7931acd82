package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/divvyhq/divvy/internal/models"
)

type createGroupRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

func (s *Server) handleCreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString(userIDKey)
	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
		Members:     req.Members,
	}
	if !group.HasMember(userID) {
		group.Members = append(group.Members, userID)
	}

	if err := s.store.CreateGroup(c.Request.Context(), group); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toGroupResponse(group))
}

func (s *Server) handleListGroups(c *gin.Context) {
	groups, err := s.store.ListGroupsForUser(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

func (s *Server) handleGetGroup(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(group))
}

func (s *Server) handleDeleteGroup(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}
	if group.CreatedBy != c.GetString(userIDKey) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the group creator can delete it"})
		return
	}
	if err := s.store.DeleteGroup(c.Request.Context(), group.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (s *Server) handleAddMember(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.store.GetUserByID(ctx, req.UserID); err != nil {
		writeError(c, err)
		return
	}
	if group.HasMember(req.UserID) {
		c.JSON(http.StatusConflict, gin.H{"error": "user is already a member"})
		return
	}
	if err := s.store.AddGroupMember(ctx, group.ID, req.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleListBalances returns the caller's balances in the group, or
// every balance row with ?all=true.
func (s *Server) handleListBalances(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}

	ctx := c.Request.Context()
	var (
		balances []*models.Balance
		err      error
	)
	if c.Query("all") == "true" {
		balances, err = s.store.ListGroupBalances(ctx, group.ID)
	} else {
		balances, err = s.manager.ListBalances(ctx, group.ID, c.GetString(userIDKey))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": toBalanceResponses(balances)})
}
