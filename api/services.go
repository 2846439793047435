package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pixeldash/race-server/tokens"
)

type usernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// TokenGenerator issues the identity token a client presents when opening
// its websocket connection. The id minted here is the player's identity
// for the life of that connection.
func (s *Server) TokenGenerator(c *gin.Context) {
	var data usernameRequest

	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	payload := tokens.Payload{
		ID:       uuid.NewString(),
		Username: data.Username,
	}

	token, err := tokens.New(payload, []byte(s.config.JWTSecret))
	if err != nil {
		log.Error().Err(err).Msg("creating token")
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, successResponse("Auth data", gin.H{
		"id":       payload.ID,
		"username": payload.Username,
		"token":    token,
	}))
}

func (s *Server) GetTokenData(c *gin.Context) {
	payload, ok := GetPayload(c)

	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		log.Error().Err(errors.New("auth payload missing from request context")).Send()
		return
	}

	c.JSON(http.StatusOK, successResponse("success", payload))
}

type checkRoomRequest struct {
	Code string `uri:"code" binding:"required"`
}

// CheckRoom lets a client probe a code before attempting a join over the
// websocket.
func (s *Server) CheckRoom(c *gin.Context) {
	var data checkRoomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	room := s.registry.Get(data.Code)
	if room == nil {
		c.JSON(http.StatusNotFound, errorResponse("room not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("room data", gin.H{
		"code":        room.Code(),
		"phase":       room.Phase(),
		"race_length": room.Length(),
		"players":     room.Size(),
	}))
}
