package state

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/quorumlab/stakegov/config"
	"github.com/quorumlab/stakegov/token"
	"github.com/quorumlab/stakegov/types"
)

// topicDescriptor parameterizes the one generic voting engine per governed
// decision: the threshold pair, the proposal sanity check, the settlement
// action, and the hooks a topic needs around the round lifecycle.
type topicDescriptor struct {
	passPct uint64
	failPct uint64

	// sanity validates a proposed value against current state.
	sanity func(ctx context.Context, s *State, v types.ProposalValue, opener *Account) error

	// onOpen runs when the round opens, before the opener's implicit vote.
	onOpen func(s *State, v types.ProposalValue) error

	// apply is the settlement action, run once when the round passes.
	// caller is the account whose vote crossed the threshold.
	apply func(s *State, v types.ProposalValue, caller *Account) error

	// onDiscard runs when the round fails or is closed by expiry.
	onDiscard func(s *State, v types.ProposalValue) error
}

var topicTable = map[types.Topic]topicDescriptor{
	types.TopicImplementation: {
		passPct: 70,
		failPct: 30,
		sanity:  sanityImplementation,
		apply: func(s *State, v types.ProposalValue, _ *Account) error {
			s.gov.Implementation = v.Address
			return nil
		},
	},
	types.TopicRequiredStake: {
		passPct: 60,
		failPct: 40,
		sanity: func(_ context.Context, s *State, v types.ProposalValue, _ *Account) error {
			if v.Amount == 0 {
				return fmt.Errorf("%w: zero stake amount", ErrInvalidProposal)
			}
			if v.Amount == s.gov.RequiredStake {
				return fmt.Errorf("%w: stake amount unchanged", ErrInvalidProposal)
			}
			return nil
		},
		apply: func(s *State, v types.ProposalValue, _ *Account) error {
			s.gov.RequiredStake = v.Amount
			return nil
		},
	},
	types.TopicAdmission: {
		passPct:   60,
		failPct:   40,
		sanity:    sanityAdmission,
		apply:     applyAdmission,
		onDiscard: discardAdmission,
	},
	types.TopicRemoval: {
		passPct:   60,
		failPct:   40,
		sanity:    sanityRemoval,
		onOpen:    openRemoval,
		apply:     applyRemoval,
		onDiscard: discardRemoval,
	},
	types.TopicPause: {
		passPct: 60,
		failPct: 40,
		sanity: func(_ context.Context, s *State, v types.ProposalValue, _ *Account) error {
			if v.Flag == s.gov.Paused {
				return fmt.Errorf("%w: paused flag unchanged", ErrInvalidProposal)
			}
			return nil
		},
		apply: func(s *State, _ types.ProposalValue, _ *Account) error {
			s.gov.Paused = !s.gov.Paused
			return nil
		},
	},
	types.TopicTreasury: {
		passPct: 60,
		failPct: 40,
		sanity:  sanityTreasury,
		apply:   applyTreasury,
	},
	types.TopicWhitelist: {
		passPct: 60,
		failPct: 40,
		sanity:  sanityWhitelist,
		apply: func(s *State, v types.ProposalValue, _ *Account) error {
			// Toggle, never assign: two passed votes on the same target
			// turn it on then off again.
			cur, err := s.Whitelisted(v.Address)
			if err != nil {
				return err
			}
			s.setWhitelist(v.Address, !cur)
			return nil
		},
	},
}

func descriptor(topic types.Topic) (topicDescriptor, error) {
	d, ok := topicTable[topic]
	if !ok {
		return topicDescriptor{}, fmt.Errorf("%w: unknown topic %v", ErrInvalidProposal, topic)
	}
	return d, nil
}

// probeCapability rejects targets without code or without an affirmative
// capability answer. A failed probe call and an explicit decline both
// reject, but are logged apart for observability.
func (s *State) probeCapability(ctx context.Context, addr common.Address) error {
	if s.collab.Probe == nil {
		return nil
	}
	res := s.collab.Probe.SupportsInterface(ctx, addr, token.ERC165InterfaceID)
	if res.Supported {
		return nil
	}
	if res.Err != nil {
		s.logger.Info("capability probe call failed", "addr", addr, "err", res.Err)
	} else if res.Declined {
		s.logger.Info("capability probe declined", "addr", addr)
	}
	return fmt.Errorf("%w: target lacks capability interface", ErrInvalidProposal)
}

func sanityImplementation(ctx context.Context, s *State, v types.ProposalValue, _ *Account) error {
	if v.Address == (common.Address{}) {
		return fmt.Errorf("%w: zero implementation address", ErrInvalidProposal)
	}
	if v.Address == s.gov.Implementation {
		return fmt.Errorf("%w: implementation unchanged", ErrInvalidProposal)
	}
	return s.probeCapability(ctx, v.Address)
}

func sanityAdmission(_ context.Context, s *State, v types.ProposalValue, _ *Account) error {
	a, err := s.FindAccountByHex(v.Target)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("%w: unknown candidate", ErrInvalidProposal)
	}
	if a.Owner {
		return fmt.Errorf("%w: candidate already owner", ErrInvalidProposal)
	}
	if a.Blacklisted {
		return fmt.Errorf("%w: candidate blacklisted", ErrInvalidProposal)
	}
	if s.gov.PendingCandidate != a.Index {
		return fmt.Errorf("%w: no pending admission request", ErrInvalidProposal)
	}
	if a.Stake < s.gov.RequiredStake {
		return fmt.Errorf("%w: candidate stake below requirement", ErrInvalidProposal)
	}
	return nil
}

func applyAdmission(s *State, v types.ProposalValue, _ *Account) error {
	a, err := s.FindAccountByHex(v.Target)
	if err != nil || a == nil {
		return ErrAccountNoexists
	}
	a.Owner = true
	s.touch(a, ModifiedFlagMod)
	s.gov.EligibleOwners += 1
	s.gov.PendingCandidate = 0
	return nil
}

// discardAdmission returns the candidate's staked collateral and frees the
// pending slot; the cooldown stamp stays so a fresh request still rate
// limits.
func discardAdmission(s *State, v types.ProposalValue) error {
	a, err := s.FindAccountByHex(v.Target)
	if err != nil || a == nil {
		return ErrAccountNoexists
	}
	if a.Stake > 0 {
		if err := s.collab.Tokens.Transfer(a.ExternalAddress(), a.Stake); err != nil {
			return err
		}
	}
	a.Stake = 0
	s.touch(a, ModifiedFlagMod)
	s.gov.PendingCandidate = 0
	return nil
}

func sanityRemoval(_ context.Context, s *State, v types.ProposalValue, opener *Account) error {
	a, err := s.FindAccountByHex(v.Target)
	if err != nil {
		return err
	}
	if a == nil || !a.Owner {
		return fmt.Errorf("%w: target not an owner", ErrInvalidProposal)
	}
	if a.Removing {
		return fmt.Errorf("%w: removal already pending", ErrInvalidProposal)
	}
	if a.Index == opener.Index {
		return fmt.Errorf("%w: cannot open removal against self", ErrInvalidProposal)
	}
	return nil
}

// openRemoval suspends the target the instant the round opens: it loses
// eligibility and the shared denominator drops before any vote is tallied.
func openRemoval(s *State, v types.ProposalValue) error {
	a, err := s.FindAccountByHex(v.Target)
	if err != nil || a == nil {
		return ErrAccountNoexists
	}
	a.Removing = true
	s.touch(a, ModifiedFlagMod)
	if s.gov.EligibleOwners > 0 {
		s.gov.EligibleOwners -= 1
	}
	return nil
}

func applyRemoval(s *State, v types.ProposalValue, caller *Account) error {
	a, err := s.FindAccountByHex(v.Target)
	if err != nil || a == nil {
		return ErrAccountNoexists
	}
	forfeited := a.Stake
	a.Stake = 0
	a.Owner = false
	a.Removing = false
	a.Blacklisted = true
	s.touch(a, ModifiedFlagMod)
	caller.Stake += forfeited
	s.touch(caller, ModifiedFlagMod)
	return nil
}

func discardRemoval(s *State, v types.ProposalValue) error {
	a, err := s.FindAccountByHex(v.Target)
	if err != nil || a == nil {
		return ErrAccountNoexists
	}
	a.Removing = false
	s.touch(a, ModifiedFlagMod)
	s.gov.EligibleOwners += 1
	return nil
}

func sanityTreasury(_ context.Context, s *State, v types.ProposalValue, _ *Account) error {
	if s.gov.Paused {
		return ErrExecutionPaused
	}
	if v.Address == (common.Address{}) {
		return fmt.Errorf("%w: zero recipient", ErrInvalidProposal)
	}
	switch v.Kind {
	case types.AssetFungible:
		if v.Amount == 0 {
			return fmt.Errorf("%w: zero amount", ErrInvalidProposal)
		}
		bal, err := s.collab.Tokens.BalanceOf(s.collab.Treasury)
		if err != nil {
			return err
		}
		if bal < v.Amount {
			return ErrInsufficientBalance
		}
	case types.AssetNFT:
		owner, err := s.collab.Collectibles.OwnerOf(v.TokenID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProposal, err)
		}
		if owner != s.collab.Treasury {
			return fmt.Errorf("%w: token not held by treasury", ErrInvalidProposal)
		}
	default:
		return fmt.Errorf("%w: unknown asset kind", ErrInvalidProposal)
	}
	return nil
}

func applyTreasury(s *State, v types.ProposalValue, _ *Account) error {
	switch v.Kind {
	case types.AssetNFT:
		return s.collab.Collectibles.SafeTransferFrom(s.collab.Treasury, v.Address, v.TokenID)
	default:
		return s.collab.Tokens.Transfer(v.Address, v.Amount)
	}
}

func sanityWhitelist(ctx context.Context, s *State, v types.ProposalValue, _ *Account) error {
	if v.Address == (common.Address{}) {
		return fmt.Errorf("%w: zero whitelist target", ErrInvalidProposal)
	}
	cur, err := s.Whitelisted(v.Address)
	if err != nil {
		return err
	}
	if !cur {
		// Probing only on the enabling leg: a target that bricked after
		// being whitelisted must still be removable.
		return s.probeCapability(ctx, v.Address)
	}
	return nil
}

// OpenProposal validates and opens a round for the topic, then casts the
// opener's implicit yes vote. A single sufficiently weighted owner settles
// the proposal in the same transition.
func (s *State) OpenProposal(ctx context.Context, topic types.Topic, v types.ProposalValue, caller uint64, checkOnly bool) (evOpen *types.EventRoundOpened, evSettled *types.EventRoundSettled, err error) {
	s.logger.Debug("apply open", "topic", topic, "owner", caller, "height", s.header.Height)
	d, err := descriptor(topic)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, nil, ErrTxOwnerNoexists
	}
	if !a.Eligible(s.gov.RequiredStake) {
		return nil, nil, ErrNotEligible
	}
	r, err := s.round(topic)
	if err != nil {
		return nil, nil, err
	}
	if r.Open() {
		return nil, nil, ErrAlreadyOpen
	}
	if err = d.sanity(ctx, s, v, a); err != nil {
		return nil, nil, err
	}
	if checkOnly {
		return nil, nil, nil
	}

	nr := &types.VoteRound{
		Topic:    topic,
		Value:    v,
		Opener:   caller,
		OpenedAt: s.now(),
	}
	if d.onOpen != nil {
		if err = d.onOpen(s, v); err != nil {
			return nil, nil, err
		}
	}
	s.putRound(topic, nr)
	a.Nonce += 1
	s.touch(a, ModifiedFlagMod)

	evOpen = &types.EventRoundOpened{
		Topic:         topic,
		Opener:        a.Index,
		OpenerAddress: a.Address(),
		OpenedAt:      nr.OpenedAt,
	}
	_, evSettled, err = s.tallyVote(d, topic, nr, a, true)
	if err != nil {
		return nil, nil, err
	}
	return
}

// CastVote records one owner's vote in the live round and evaluates the
// outcome against the current eligible-owner denominator.
func (s *State) CastVote(ctx context.Context, topic types.Topic, approve bool, caller uint64, checkOnly bool) (evVote *types.EventVote, evSettled *types.EventRoundSettled, err error) {
	s.logger.Debug("apply vote", "topic", topic, "owner", caller, "approve", approve, "height", s.header.Height)
	d, err := descriptor(topic)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, nil, ErrTxOwnerNoexists
	}
	if !a.Eligible(s.gov.RequiredStake) {
		return nil, nil, ErrNotEligible
	}
	r, err := s.round(topic)
	if err != nil {
		return nil, nil, err
	}
	if !r.Open() {
		return nil, nil, ErrNoActiveProposal
	}
	if r.Voted(caller) {
		return nil, nil, ErrAlreadyVoted
	}
	if checkOnly {
		return nil, nil, nil
	}
	a.Nonce += 1
	s.touch(a, ModifiedFlagMod)
	return s.tallyVote(d, topic, r, a, approve)
}

// tallyVote appends the vote, evaluates thresholds, and settles the round
// when one is crossed: apply-then-settle on pass, discard-then-settle on
// fail, persist tallies otherwise.
func (s *State) tallyVote(d topicDescriptor, topic types.Topic, r *types.VoteRound, a *Account, approve bool) (evVote *types.EventVote, evSettled *types.EventRoundSettled, err error) {
	if err = s.castVote(r, a.Index, approve); err != nil {
		return nil, nil, err
	}
	yes, no := uint64(len(r.Yes)), uint64(len(r.No))
	total := s.gov.EligibleOwners
	evVote = &types.EventVote{
		Topic:        topic,
		Voter:        a.Index,
		VoterAddress: a.Address(),
		Approve:      approve,
		YesCount:     yes,
		NoCount:      no,
		Total:        total,
	}

	switch evaluate(yes, no, total, d.passPct, d.failPct) {
	case OutcomePassed:
		if d.apply != nil {
			if err = d.apply(s, r.Value, a); err != nil {
				return nil, nil, err
			}
		}
		reward, err := s.settleRound(topic, r)
		if err != nil {
			return nil, nil, err
		}
		evSettled = &types.EventRoundSettled{
			Topic:    topic,
			Outcome:  types.OutcomePassed,
			YesCount: yes,
			NoCount:  no,
			Reward:   reward,
			Closer:   a.Index,
		}
	case OutcomeFailed:
		if d.onDiscard != nil {
			if err = d.onDiscard(s, r.Value); err != nil {
				return nil, nil, err
			}
		}
		reward, err := s.settleRound(topic, r)
		if err != nil {
			return nil, nil, err
		}
		evSettled = &types.EventRoundSettled{
			Topic:    topic,
			Outcome:  types.OutcomeFailed,
			YesCount: yes,
			NoCount:  no,
			Reward:   reward,
			Closer:   a.Index,
		}
	default:
		s.putRound(topic, r)
	}
	return
}

// CloseExpired force-closes a round older than the voting window. Any
// eligible caller may reap it; participants are still credited.
func (s *State) CloseExpired(topic types.Topic, caller uint64, checkOnly bool) (evSettled *types.EventRoundSettled, err error) {
	s.logger.Debug("apply close", "topic", topic, "owner", caller, "height", s.header.Height)
	d, err := descriptor(topic)
	if err != nil {
		return nil, err
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, ErrTxOwnerNoexists
	}
	if !a.Eligible(s.gov.RequiredStake) {
		return nil, ErrNotEligible
	}
	r, err := s.round(topic)
	if err != nil {
		return nil, err
	}
	if !r.Open() {
		return nil, ErrNoActiveProposal
	}
	window := int64(config.VotingWindow().Seconds())
	if s.now() < r.OpenedAt+window {
		return nil, ErrStillOpen
	}
	if checkOnly {
		return nil, nil
	}
	a.Nonce += 1
	s.touch(a, ModifiedFlagMod)
	if d.onDiscard != nil {
		if err = d.onDiscard(s, r.Value); err != nil {
			return nil, err
		}
	}
	yes, no := uint64(len(r.Yes)), uint64(len(r.No))
	reward, err := s.settleRound(topic, r)
	if err != nil {
		return nil, err
	}
	evSettled = &types.EventRoundSettled{
		Topic:    topic,
		Outcome:  types.OutcomeExpired,
		YesCount: yes,
		NoCount:  no,
		Reward:   reward,
		Closer:   a.Index,
	}
	return
}

// RoundStatus returns the live round for the topic, or ErrNoActiveProposal
// when idle.
func (s *State) RoundStatus(topic types.Topic) (*types.VoteRound, error) {
	if !topic.Valid() {
		return nil, fmt.Errorf("%w: unknown topic %v", ErrInvalidProposal, topic)
	}
	r, err := s.round(topic)
	if err != nil {
		return nil, err
	}
	if !r.Open() {
		return nil, ErrNoActiveProposal
	}
	cp := *r
	cp.Yes = append([]uint64(nil), r.Yes...)
	cp.No = append([]uint64(nil), r.No...)
	return &cp, nil
}
