package indexer

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quorumlab/stakegov/engine"
	"github.com/quorumlab/stakegov/types"
)

type Service struct {
	router     *gin.Engine
	indexer    *Indexer
	gov        *engine.Engine
	listenAddr string
}

func NewService(listenAddr string, indexer *Indexer, gov *engine.Engine) *Service {
	r := gin.Default()
	s := &Service{
		router:     r,
		indexer:    indexer,
		gov:        gov,
		listenAddr: listenAddr,
	}
	s.router.POST("/tx", s.handleSubmitTx)
	s.router.POST("/getRounds", s.handleGetRounds)
	s.router.POST("/getVotes", s.handleGetVotes)
	s.router.POST("/getOwners", s.handleGetOwners)
	s.router.POST("/getStakeEvents", s.handleGetStakeEvents)
	s.router.GET("/status/:topic", s.handleStatus)
	s.router.GET("/governance", s.handleGovernance)
	s.router.GET("/account/:addr", s.handleAccount)
	return s
}

func (s *Service) Start() error {
	return s.router.Run(s.listenAddr)
}

type SubmitTxResponse struct {
	Code   uint32        `json:"code"`
	Log    string        `json:"log"`
	Height uint64        `json:"height"`
	Events []types.Event `json:"events"`
}

func (s *Service) handleSubmitTx(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.gov.ApplyTx(context.Background(), raw)
	if err != nil {
		c.JSON(http.StatusOK, SubmitTxResponse{Code: 1, Log: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SubmitTxResponse{
		Code:   res.Code,
		Log:    res.Log,
		Height: s.gov.Header().Height,
		Events: res.Events,
	})
}

type GetRoundsReq struct {
	RoundId  uint64 `json:"roundId"`
	Topic    string `json:"topic"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type RoundInfo struct {
	Round Round        `json:"round"`
	Votes []VoteRecord `json:"votes"`
}

type GetRoundsResponse struct {
	Rounds []RoundInfo `json:"rounds"`
	Total  uint64      `json:"total"`
}

func (s *Service) handleGetRounds(c *gin.Context) {
	var response GetRoundsResponse
	response.Rounds = make([]RoundInfo, 0)
	var requestData GetRoundsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.RoundId != 0 {
		round, err := s.indexer.getRoundById(requestData.RoundId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		votes, _, err := s.indexer.getVotesByRound(round.Id, 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Rounds = append(response.Rounds, RoundInfo{Round: round, Votes: votes})
		c.JSON(http.StatusOK, response)
		return
	}

	rounds, total, err := s.indexer.getRounds(requestData.Topic, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, round := range rounds {
		votes, _, err := s.indexer.getVotesByRound(round.Id, 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Rounds = append(response.Rounds, RoundInfo{Round: round, Votes: votes})
	}
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	RoundId  uint64 `json:"roundId"`
	Voter    string `json:"voter"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []VoteRecord `json:"votes"`
	Total uint64       `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var response GetVotesResponse
	response.Votes = make([]VoteRecord, 0)
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.RoundId != 0 {
		votes, total, err := s.indexer.getVotesByRound(requestData.RoundId, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Votes = votes
		response.Total = total
		c.JSON(http.StatusOK, response)
		return
	}
	if requestData.Voter != "" {
		votes, total, err := s.indexer.getVotesByVoter(requestData.Voter, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Votes = votes
		response.Total = total
		c.JSON(http.StatusOK, response)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "roundId or voter is required"})
}

type GetOwnersReq struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type GetOwnersResponse struct {
	Owners []OwnerProfile `json:"owners"`
	Total  uint64         `json:"total"`
}

func (s *Service) handleGetOwners(c *gin.Context) {
	var response GetOwnersResponse
	response.Owners = make([]OwnerProfile, 0)
	var requestData GetOwnersReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	owners, total, err := s.indexer.getOwners(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Owners = owners
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetStakeEventsReq struct {
	Address  string `json:"address"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetStakeEventsResponse struct {
	Events []StakeEvent `json:"events"`
	Total  uint64       `json:"total"`
}

func (s *Service) handleGetStakeEvents(c *gin.Context) {
	var response GetStakeEventsResponse
	response.Events = make([]StakeEvent, 0)
	var requestData GetStakeEventsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, total, err := s.indexer.getStakeEvents(requestData.Address, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Events = events
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type StatusResponse struct {
	Round  *types.VoteRound `json:"round,omitempty"`
	Open   bool             `json:"open"`
	Height uint64           `json:"height"`
}

func (s *Service) handleStatus(c *gin.Context) {
	topic, err := types.ParseTopic(c.Param("topic"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	round, height, err := s.gov.Round(topic)
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{Open: false, Height: s.gov.Header().Height})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Round: round, Open: true, Height: height})
}

func (s *Service) handleGovernance(c *gin.Context) {
	gov, height := s.gov.Governance()
	c.JSON(http.StatusOK, gin.H{
		"chainId":    s.gov.Header().ChainID,
		"governance": gov,
		"height":     height,
	})
}

func (s *Service) handleAccount(c *gin.Context) {
	raw, err := hex.DecodeString(c.Param("addr"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acnt, height, err := s.gov.AccountByAddress(raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if acnt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acnt, "height": height})
}
