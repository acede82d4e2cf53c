package state

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/quorumlab/stakegov/config"
	"github.com/quorumlab/stakegov/types"
)

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomePassed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return types.OutcomePassed
	case OutcomeFailed:
		return types.OutcomeFailed
	default:
		return "pending"
	}
}

// evaluate applies the threshold pair with integer percentage arithmetic:
// passed when yes reaches passPct of total, failed when no strictly exceeds
// failPct of total.
func evaluate(yes, no, total, passPct, failPct uint64) Outcome {
	if total == 0 {
		return OutcomePending
	}
	if yes*100 >= total*passPct {
		return OutcomePassed
	}
	if no*100 > total*failPct {
		return OutcomeFailed
	}
	return OutcomePending
}

func (s *State) round(topic types.Topic) (*types.VoteRound, error) {
	if r, ok := s.rounds[topic]; ok {
		return r, nil
	}
	key := fmt.Sprintf(KeyRound, uint8(topic))
	val, err := s.db.Get([]byte(key))
	if err != nil && err != leveldb.ErrNotFound {
		return nil, err
	}
	r := &types.VoteRound{Topic: topic}
	if val != nil {
		if err = json.Unmarshal(val, r); err != nil {
			return nil, err
		}
	}
	s.rounds[topic] = r
	return r, nil
}

func (s *State) putRound(topic types.Topic, r *types.VoteRound) {
	s.rounds[topic] = r
	s.modRounds[topic] = true
}

// castVote appends the voter to one side of the round. Eligibility is the
// caller's responsibility; double votes are rejected here.
func (s *State) castVote(r *types.VoteRound, voter uint64, approve bool) error {
	if r.Voted(voter) {
		return ErrAlreadyVoted
	}
	if approve {
		r.Yes = append(r.Yes, voter)
	} else {
		r.No = append(r.No, voter)
	}
	return nil
}

// settleRound credits every participant the participation reward and resets
// the round to the idle sentinel. Paid on all settlement paths, quorum
// reached or not.
func (s *State) settleRound(topic types.Topic, r *types.VoteRound) (reward uint64, err error) {
	if !r.Open() {
		return 0, ErrNoActiveProposal
	}
	reward = config.ParticipationReward(s.gov.RequiredStake)
	if reward > 0 {
		for _, idx := range r.Participants() {
			var a *Account
			a, err = s.GetAccount(idx)
			if err != nil {
				return 0, err
			}
			a.Stake += reward
			s.touch(a, ModifiedFlagMod)
		}
	}
	s.gov.RoundsSettled += 1
	s.putRound(topic, &types.VoteRound{Topic: topic})
	return reward, nil
}
