package indexer

import (
	"context"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/quorumlab/stakegov/types"
)

// Indexer mirrors settled transitions into sqlite so the HTTP surface can
// answer history queries without walking the ledger.
type Indexer struct {
	logger cmtlog.Logger
	db     *gorm.DB

	eventHandlers map[string]eventHandler
}

func NewIndexer(logger cmtlog.Logger, dbPath string) (*Indexer, error) {
	logger = logger.With("module", "indexer")
	logger.Info("NewIndexer", "dbPath", dbPath)
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Round{}, &VoteRecord{}, &OwnerProfile{}, &StakeEvent{}).Error; err != nil {
		return nil, err
	}
	c := Indexer{
		logger: logger,
		db:     db,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventRoundOpenedType:      c.handleEventRoundOpened,
		types.EventVoteType:             c.handleEventVote,
		types.EventRoundSettledType:     c.handleEventRoundSettled,
		types.EventDepositType:          c.handleEventStakeChange,
		types.EventWithdrawType:         c.handleEventStakeChange,
		types.EventExitType:             c.handleEventStakeChange,
		types.EventAdmissionRequestType: c.handleEventStakeChange,
	}
	return &c, nil
}

func (c *Indexer) Close() error {
	return c.db.Close()
}

type eventHandler func(ctx context.Context, event types.Event)

// Run drains the engine's event feed until the feed closes or the context
// is done.
func (c *Indexer) Run(ctx context.Context, events <-chan types.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ctx, ev)
		}
	}
}

func (c *Indexer) handleEvent(ctx context.Context, event types.Event) {
	if h, ok := c.eventHandlers[event.Type]; ok {
		h(ctx, event)
	}
}

func (c *Indexer) handleEventRoundOpened(ctx context.Context, event types.Event) {
	ev := types.DecodeEventRoundOpened(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	round := Round{
		Topic:         ev.Topic.String(),
		Opener:        ev.Opener,
		OpenerAddress: ev.OpenerAddress,
		OpenedAt:      ev.OpenedAt,
		OpenHeight:    event.Height,
	}
	if err := c.db.Create(&round).Error; err != nil {
		c.logger.Error("save round fail", "err", err)
	}
}

func (c *Indexer) handleEventVote(ctx context.Context, event types.Event) {
	ev := types.DecodeEventVote(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	round, err := c.openRound(ev.Topic.String())
	if err != nil {
		c.logger.Error("get open round fail", "topic", ev.Topic, "err", err)
		return
	}
	vote := VoteRecord{
		Round:        round.Id,
		Topic:        ev.Topic.String(),
		VoterIndex:   ev.Voter,
		VoterAddress: ev.VoterAddress,
		Approve:      ev.Approve,
		Height:       event.Height,
	}
	if err := c.db.Create(&vote).Error; err != nil {
		c.logger.Error("save vote fail", "err", err)
	}
}

func (c *Indexer) handleEventRoundSettled(ctx context.Context, event types.Event) {
	ev := types.DecodeEventRoundSettled(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	round, err := c.openRound(ev.Topic.String())
	if err != nil {
		c.logger.Error("get open round fail", "topic", ev.Topic, "err", err)
		return
	}
	round.Outcome = ev.Outcome
	round.SettleHeight = event.Height
	round.Yes = ev.YesCount
	round.No = ev.NoCount
	round.Reward = ev.Reward
	round.Closer = ev.Closer
	if err := c.db.Save(round).Error; err != nil {
		c.logger.Error("save round fail", "err", err)
	}
}

func (c *Indexer) handleEventStakeChange(ctx context.Context, event types.Event) {
	ev := types.DecodeEventStakeChange(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	rec := StakeEvent{
		Kind:    ev.Kind,
		Owner:   ev.Owner,
		Address: ev.Address,
		Amount:  ev.Amount,
		Balance: ev.Balance,
		Height:  event.Height,
	}
	if err := c.db.Create(&rec).Error; err != nil {
		c.logger.Error("save stake event fail", "err", err)
	}

	profile := OwnerProfile{
		Id:      ev.Owner,
		Address: ev.Address,
		Balance: ev.Balance,
		Height:  event.Height,
	}
	if ev.Name != "" {
		profile.Name = ev.Name
	} else {
		var old OwnerProfile
		if err := c.db.First(&old, ev.Owner).Error; err == nil {
			profile.Name = old.Name
		}
	}
	if err := c.db.Save(&profile).Error; err != nil {
		c.logger.Error("save owner profile fail", "err", err)
	}
}

// openRound returns the latest unsettled round row for the topic.
func (c *Indexer) openRound(topic string) (*Round, error) {
	var round Round
	err := c.db.Where("topic = ? AND outcome = ?", topic, "").Order("id desc").First(&round).Error
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (c *Indexer) getRounds(topic string, page int, pageSize int) ([]Round, uint64, error) {
	q := c.db.Model(&Round{})
	if topic != "" {
		q = q.Where("topic = ?", topic)
	}
	var rounds []Round
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&rounds).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = q.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return rounds, total, nil
}

func (c *Indexer) getRoundById(id uint64) (Round, error) {
	var round Round
	err := c.db.Where("id = ?", id).First(&round).Error
	if err != nil {
		return Round{}, err
	}
	return round, nil
}

func (c *Indexer) getVotesByRound(round uint64, page int, pageSize int) ([]VoteRecord, uint64, error) {
	var votes []VoteRecord
	err := c.db.Where("round = ?", round).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&VoteRecord{}).Where("round = ?", round).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *Indexer) getVotesByVoter(voter string, page int, pageSize int) ([]VoteRecord, uint64, error) {
	var votes []VoteRecord
	err := c.db.Where("voter_address = ?", voter).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&VoteRecord{}).Where("voter_address = ?", voter).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *Indexer) getOwners(page int, pageSize int) ([]OwnerProfile, uint64, error) {
	var owners []OwnerProfile
	err := c.db.Order("balance desc").Offset(page * pageSize).Limit(pageSize).Find(&owners).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&OwnerProfile{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return owners, total, nil
}

func (c *Indexer) getStakeEvents(address string, page int, pageSize int) ([]StakeEvent, uint64, error) {
	q := c.db.Model(&StakeEvent{})
	if address != "" {
		q = q.Where("address = ?", address)
	}
	var events []StakeEvent
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = q.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
