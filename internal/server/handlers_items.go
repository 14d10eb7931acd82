package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/money"
)

type createItemRequest struct {
	Name         string   `json:"name" binding:"required"`
	Price        string   `json:"price" binding:"required"`
	Participants []string `json:"participants" binding:"required"`
}

func (s *Server) handleCreateItem(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	instance, err := s.store.GetInstance(ctx, c.Param("instanceID"))
	if err != nil {
		writeError(c, err)
		return
	}
	if instance.GroupID != group.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	price, err := money.Parse(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price: " + err.Error()})
		return
	}
	for _, userID := range req.Participants {
		if !group.HasMember(userID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "participant " + userID + " is not a group member"})
			return
		}
	}

	item := &models.Item{
		InstanceID: instance.ID,
		Name:       req.Name,
		Price:      price,
		CreatedBy:  c.GetString(userIDKey),
	}
	if err := s.manager.OnItemCreated(ctx, group.ID, item, req.Participants); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":          item.ID,
		"instance_id": item.InstanceID,
		"name":        item.Name,
		"price":       item.Price.String(),
		"created_by":  item.CreatedBy,
	})
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}

	ctx := c.Request.Context()
	item, err := s.store.GetItem(ctx, c.Param("itemID"))
	if err != nil {
		writeError(c, err)
		return
	}
	instance, err := s.store.GetInstance(ctx, item.InstanceID)
	if err != nil {
		writeError(c, err)
		return
	}
	if instance.GroupID != group.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := s.manager.OnItemDeleted(ctx, group.ID, item.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
