package state

import (
	"context"
	"testing"
	"time"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/quorumlab/stakegov/config"
	"github.com/quorumlab/stakegov/token"
	"github.com/quorumlab/stakegov/types"
)

func TestOpenRejectsIneligible(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	v := types.ProposalValue{Flag: true}

	poor := env.owners[0]
	poor.Stake = testRequiredStake - 1
	_, _, err := st.OpenProposal(ctx, types.TopicPause, v, poor.Index, false)
	require.ErrorIs(t, err, ErrNotEligible)

	_, _, err = st.OpenProposal(ctx, types.TopicPause, v, 999999, false)
	require.ErrorIs(t, err, ErrTxOwnerNoexists)
}

func TestOpenAlreadyOpen(t *testing.T) {
	env := newTestEnv(t, 5)
	st := env.st
	ctx := context.Background()

	v := types.ProposalValue{Flag: true}
	_, _, err := st.OpenProposal(ctx, types.TopicPause, v, env.owners[0].Index, false)
	require.NoError(t, err)

	_, _, err = st.OpenProposal(ctx, types.TopicPause, v, env.owners[1].Index, false)
	require.ErrorIs(t, err, ErrAlreadyOpen)

	// another topic stays independent
	_, _, err = st.OpenProposal(ctx, types.TopicRequiredStake,
		types.ProposalValue{Amount: 2 * testRequiredStake}, env.owners[1].Index, false)
	require.NoError(t, err)
}

func TestVoteLifecyclePass(t *testing.T) {
	env := newTestEnv(t, 5)
	st := env.st
	ctx := context.Background()

	v := types.ProposalValue{Flag: true}
	evOpen, evSettled, err := st.OpenProposal(ctx, types.TopicPause, v, env.owners[0].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evOpen)
	require.Nil(t, evSettled, "one of five is below the 60 threshold")

	// 2 of 5 still pending
	evVote, evSettled, err := st.CastVote(ctx, types.TopicPause, true, env.owners[1].Index, false)
	require.NoError(t, err)
	require.Nil(t, evSettled)
	require.Equal(t, uint64(2), evVote.YesCount)

	// 3 of 5 crosses 60
	_, evSettled, err = st.CastVote(ctx, types.TopicPause, true, env.owners[2].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomePassed, evSettled.Outcome)
	require.Equal(t, env.owners[2].Index, evSettled.Closer)
	require.True(t, st.gov.Paused)
	require.Equal(t, uint64(1), st.gov.RoundsSettled)

	// reward paid to the three participants
	reward := config.ParticipationReward(testRequiredStake)
	require.Equal(t, reward, evSettled.Reward)
	for i := 0; i < 3; i++ {
		require.Equal(t, uint64(testRequiredStake)+reward, env.owners[i].Stake)
	}
	require.Equal(t, uint64(testRequiredStake), env.owners[3].Stake)

	// round is idle again
	_, err = st.RoundStatus(types.TopicPause)
	require.ErrorIs(t, err, ErrNoActiveProposal)
	_, _, err = st.CastVote(ctx, types.TopicPause, true, env.owners[3].Index, false)
	require.ErrorIs(t, err, ErrNoActiveProposal)
}

func TestVoteLifecycleFail(t *testing.T) {
	env := newTestEnv(t, 5)
	st := env.st
	ctx := context.Background()

	v := types.ProposalValue{Amount: 2 * testRequiredStake}
	_, _, err := st.OpenProposal(ctx, types.TopicRequiredStake, v, env.owners[0].Index, false)
	require.NoError(t, err)

	// 2 no of 5 does not break 40
	_, evSettled, err := st.CastVote(ctx, types.TopicRequiredStake, false, env.owners[1].Index, false)
	require.NoError(t, err)
	require.Nil(t, evSettled)
	_, evSettled, err = st.CastVote(ctx, types.TopicRequiredStake, false, env.owners[2].Index, false)
	require.NoError(t, err)
	require.Nil(t, evSettled)

	// 3 no of 5 strictly exceeds 40
	_, evSettled, err = st.CastVote(ctx, types.TopicRequiredStake, false, env.owners[3].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomeFailed, evSettled.Outcome)
	require.Equal(t, uint64(testRequiredStake), st.gov.RequiredStake)
}

func TestDoubleVote(t *testing.T) {
	env := newTestEnv(t, 5)
	st := env.st
	ctx := context.Background()

	_, _, err := st.OpenProposal(ctx, types.TopicPause, types.ProposalValue{Flag: true}, env.owners[0].Index, false)
	require.NoError(t, err)

	// opener's implicit yes already counts
	_, _, err = st.CastVote(ctx, types.TopicPause, false, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	_, _, err = st.CastVote(ctx, types.TopicPause, false, env.owners[1].Index, false)
	require.NoError(t, err)
	_, _, err = st.CastVote(ctx, types.TopicPause, true, env.owners[1].Index, false)
	require.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestImplementationThresholds(t *testing.T) {
	env := newTestEnv(t, 5)
	st := env.st
	ctx := context.Background()

	impl := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	env.probe.SetContract(impl, token.ERC165InterfaceID)

	_, _, err := st.OpenProposal(ctx, types.TopicImplementation,
		types.ProposalValue{Address: impl}, env.owners[0].Index, false)
	require.NoError(t, err)

	// 3 of 5 yes is 60, below the 70 bar
	_, evSettled, err := st.CastVote(ctx, types.TopicImplementation, true, env.owners[1].Index, false)
	require.NoError(t, err)
	require.Nil(t, evSettled)
	_, evSettled, err = st.CastVote(ctx, types.TopicImplementation, true, env.owners[2].Index, false)
	require.NoError(t, err)
	require.Nil(t, evSettled)

	// 4 of 5 reaches 70
	_, evSettled, err = st.CastVote(ctx, types.TopicImplementation, true, env.owners[3].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomePassed, evSettled.Outcome)
	require.Equal(t, impl, st.gov.Implementation)
}

func TestImplementationFailAt30(t *testing.T) {
	env := newTestEnv(t, 5)
	st := env.st
	ctx := context.Background()

	impl := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	env.probe.SetContract(impl, token.ERC165InterfaceID)

	_, _, err := st.OpenProposal(ctx, types.TopicImplementation,
		types.ProposalValue{Address: impl}, env.owners[0].Index, false)
	require.NoError(t, err)

	// 1 no of 5 is 20, not over 30
	_, evSettled, err := st.CastVote(ctx, types.TopicImplementation, false, env.owners[1].Index, false)
	require.NoError(t, err)
	require.Nil(t, evSettled)

	// 2 no of 5 is 40, strictly over 30
	_, evSettled, err = st.CastVote(ctx, types.TopicImplementation, false, env.owners[2].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomeFailed, evSettled.Outcome)
	require.Equal(t, common.Address{}, st.gov.Implementation)
}

func TestImplementationProbeRejections(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	// no code behind the address
	declined := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	_, _, err := st.OpenProposal(ctx, types.TopicImplementation,
		types.ProposalValue{Address: declined}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)

	// probe call failure also rejects
	failing := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	env.probe.SetFailing(failing, context.DeadlineExceeded)
	_, _, err = st.OpenProposal(ctx, types.TopicImplementation,
		types.ProposalValue{Address: failing}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)

	_, _, err = st.OpenProposal(ctx, types.TopicImplementation,
		types.ProposalValue{}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)
}

func TestCloseExpired(t *testing.T) {
	env := newTestEnv(t, 5)
	st := env.st
	ctx := context.Background()

	_, _, err := st.OpenProposal(ctx, types.TopicPause, types.ProposalValue{Flag: true}, env.owners[0].Index, false)
	require.NoError(t, err)

	_, err = st.CloseExpired(types.TopicPause, env.owners[1].Index, false)
	require.ErrorIs(t, err, ErrStillOpen)

	env.advance(config.VotingWindow() - time.Second)
	_, err = st.CloseExpired(types.TopicPause, env.owners[1].Index, false)
	require.ErrorIs(t, err, ErrStillOpen)

	env.advance(time.Second)
	evSettled, err := st.CloseExpired(types.TopicPause, env.owners[1].Index, false)
	require.NoError(t, err)
	require.Equal(t, types.OutcomeExpired, evSettled.Outcome)
	require.False(t, st.gov.Paused)

	// the opener still earned the participation reward
	reward := config.ParticipationReward(testRequiredStake)
	require.Equal(t, uint64(testRequiredStake)+reward, env.owners[0].Stake)

	_, err = st.CloseExpired(types.TopicPause, env.owners[1].Index, false)
	require.ErrorIs(t, err, ErrNoActiveProposal)
}

func TestRemovalLifecycle(t *testing.T) {
	env := newTestEnv(t, 4)
	st := env.st
	ctx := context.Background()
	target := env.owners[3]

	v := types.ProposalValue{Target: target.Address()}
	_, _, err := st.OpenProposal(ctx, types.TopicRemoval, v, env.owners[0].Index, false)
	require.NoError(t, err)

	// target suspended the moment the round opened
	require.True(t, target.Removing)
	require.Equal(t, uint64(3), st.gov.EligibleOwners)
	_, _, err = st.CastVote(ctx, types.TopicRemoval, false, target.Index, false)
	require.ErrorIs(t, err, ErrNotEligible)

	// 2 of 3 crosses 60
	_, evSettled, err := st.CastVote(ctx, types.TopicRemoval, true, env.owners[1].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomePassed, evSettled.Outcome)

	require.False(t, target.Owner)
	require.True(t, target.Blacklisted)
	require.False(t, target.Removing)
	require.Equal(t, uint64(0), target.Stake)
	// forfeited collateral went to the settling voter, plus the reward
	reward := config.ParticipationReward(testRequiredStake)
	require.Equal(t, uint64(2*testRequiredStake)+reward, env.owners[1].Stake)
}

func TestRemovalFailureRestoresTarget(t *testing.T) {
	env := newTestEnv(t, 4)
	st := env.st
	ctx := context.Background()
	target := env.owners[3]

	v := types.ProposalValue{Target: target.Address()}
	_, _, err := st.OpenProposal(ctx, types.TopicRemoval, v, env.owners[0].Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(3), st.gov.EligibleOwners)

	// 2 no of 3 strictly exceeds 40
	_, evSettled, err := st.CastVote(ctx, types.TopicRemoval, false, env.owners[1].Index, false)
	require.NoError(t, err)
	require.Nil(t, evSettled)
	_, evSettled, err = st.CastVote(ctx, types.TopicRemoval, false, env.owners[2].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomeFailed, evSettled.Outcome)

	require.True(t, target.Owner)
	require.False(t, target.Removing)
	require.Equal(t, uint64(4), st.gov.EligibleOwners)
	require.Equal(t, uint64(testRequiredStake), target.Stake)
}

func TestRemovalSanity(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	// self-removal would leave the opener voting on its own suspension
	_, _, err := st.OpenProposal(ctx, types.TopicRemoval,
		types.ProposalValue{Target: env.owners[0].Address()}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)

	_, _, err = st.OpenProposal(ctx, types.TopicRemoval,
		types.ProposalValue{Target: "00"}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)
}

func TestAdmissionRoundPass(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	cand := env.stageCandidate(t)

	v := types.ProposalValue{Target: cand.Address()}
	_, _, err := st.OpenProposal(ctx, types.TopicAdmission, v, env.owners[0].Index, false)
	require.NoError(t, err)

	_, evSettled, err := st.CastVote(ctx, types.TopicAdmission, true, env.owners[1].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomePassed, evSettled.Outcome)

	require.True(t, cand.Owner)
	require.Equal(t, uint64(4), st.gov.EligibleOwners)
	require.Equal(t, uint64(0), st.gov.PendingCandidate)
}

func TestAdmissionRoundFailRefunds(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	cand := env.stageCandidate(t)
	ext := cand.ExternalAddress()

	v := types.ProposalValue{Target: cand.Address()}
	_, _, err := st.OpenProposal(ctx, types.TopicAdmission, v, env.owners[0].Index, false)
	require.NoError(t, err)

	_, evSettled, err := st.CastVote(ctx, types.TopicAdmission, false, env.owners[1].Index, false)
	require.NoError(t, err)
	require.Nil(t, evSettled)
	_, evSettled, err = st.CastVote(ctx, types.TopicAdmission, false, env.owners[2].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomeFailed, evSettled.Outcome)

	require.False(t, cand.Owner)
	require.Equal(t, uint64(0), cand.Stake)
	require.Equal(t, uint64(0), st.gov.PendingCandidate)
	bal, err := env.ledger.BalanceOf(ext)
	require.NoError(t, err)
	require.Equal(t, uint64(testRequiredStake), bal)
}

func TestAdmissionSanity(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	// no pending request
	_, _, err := st.OpenProposal(ctx, types.TopicAdmission,
		types.ProposalValue{Target: env.owners[1].Address()}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)
}

func TestTreasuryFungible(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	recipient := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	v := types.ProposalValue{Address: recipient, Amount: 700}

	// nothing in custody yet
	_, _, err := st.OpenProposal(ctx, types.TopicTreasury, v, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	env.ledger.Mint(testTreasury, 1000)
	_, _, err = st.OpenProposal(ctx, types.TopicTreasury, v, env.owners[0].Index, false)
	require.NoError(t, err)

	_, evSettled, err := st.CastVote(ctx, types.TopicTreasury, true, env.owners[1].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomePassed, evSettled.Outcome)

	bal, err := env.ledger.BalanceOf(recipient)
	require.NoError(t, err)
	require.Equal(t, uint64(700), bal)
}

func TestTreasuryNFT(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	recipient := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	v := types.ProposalValue{Address: recipient, Kind: types.AssetNFT, TokenID: 7}

	_, _, err := st.OpenProposal(ctx, types.TopicTreasury, v, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)

	env.collectibles.MintNFT(testTreasury, 7)
	_, _, err = st.OpenProposal(ctx, types.TopicTreasury, v, env.owners[0].Index, false)
	require.NoError(t, err)

	_, evSettled, err := st.CastVote(ctx, types.TopicTreasury, true, env.owners[1].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evSettled)

	owner, err := env.collectibles.OwnerOf(7)
	require.NoError(t, err)
	require.Equal(t, recipient, owner)
}

func TestTreasuryPausedGate(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()
	st.gov.Paused = true
	env.ledger.Mint(testTreasury, 1000)

	v := types.ProposalValue{
		Address: common.HexToAddress("0x00000000000000000000000000000000000000dd"),
		Amount:  100,
	}
	_, _, err := st.OpenProposal(ctx, types.TopicTreasury, v, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrExecutionPaused)

	// other topics stay live while paused
	_, _, err = st.OpenProposal(ctx, types.TopicPause, types.ProposalValue{Flag: false}, env.owners[0].Index, false)
	require.NoError(t, err)
}

func TestWhitelistToggle(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	target := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	env.probe.SetContract(target, token.ERC165InterfaceID)
	v := types.ProposalValue{Address: target}

	passRound := func() {
		_, _, err := st.OpenProposal(ctx, types.TopicWhitelist, v, env.owners[0].Index, false)
		require.NoError(t, err)
		_, evSettled, err := st.CastVote(ctx, types.TopicWhitelist, true, env.owners[1].Index, false)
		require.NoError(t, err)
		require.NotNil(t, evSettled)
		require.Equal(t, types.OutcomePassed, evSettled.Outcome)
	}

	passRound()
	on, err := st.Whitelisted(target)
	require.NoError(t, err)
	require.True(t, on)

	// second passed vote on the same target toggles it back off, and the
	// disabling leg skips the capability probe
	env.probe.SetFailing(target, context.DeadlineExceeded)
	passRound()
	on, err = st.Whitelisted(target)
	require.NoError(t, err)
	require.False(t, on)
}

func TestPauseSanity(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	_, _, err := st.OpenProposal(ctx, types.TopicPause, types.ProposalValue{Flag: false}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)
}

func TestRequiredStakeSanity(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	ctx := context.Background()

	_, _, err := st.OpenProposal(ctx, types.TopicRequiredStake,
		types.ProposalValue{Amount: 0}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)
	_, _, err = st.OpenProposal(ctx, types.TopicRequiredStake,
		types.ProposalValue{Amount: testRequiredStake}, env.owners[0].Index, false)
	require.ErrorIs(t, err, ErrInvalidProposal)
}

func TestSingleOwnerSettlesOnOpen(t *testing.T) {
	env := newTestEnv(t, 1)
	st := env.st
	ctx := context.Background()

	evOpen, evSettled, err := st.OpenProposal(ctx, types.TopicPause,
		types.ProposalValue{Flag: true}, env.owners[0].Index, false)
	require.NoError(t, err)
	require.NotNil(t, evOpen)
	require.NotNil(t, evSettled)
	require.Equal(t, types.OutcomePassed, evSettled.Outcome)
	require.True(t, st.gov.Paused)
}

// stageCandidate stakes a fresh key and leaves it as the pending candidate.
func (e *testEnv) stageCandidate(t *testing.T) *Account {
	t.Helper()
	priv := ed25519.GenPrivKey()
	ext := common.BytesToAddress(priv.PubKey().Address())
	e.ledger.Mint(ext, testRequiredStake)
	e.ledger.Approve(ext, testTreasury, testRequiredStake)
	_, err := e.st.RequestAdmission(priv.PubKey().Bytes(), "candidate", false)
	require.NoError(t, err)
	cand, err := e.st.FindAccount(priv.PubKey().Address())
	require.NoError(t, err)
	require.NotNil(t, cand)
	return cand
}
