package state

import (
	"testing"
	"time"

	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/quorumlab/stakegov/config"
	"github.com/quorumlab/stakegov/token"
)

const testRequiredStake = 1_000_000

var testTreasury = common.HexToAddress("0x0000000000000000000000000000000000000100")

type testEnv struct {
	st           *State
	ledger       *token.MemoryLedger
	collectibles *token.MemoryCollectibles
	probe        *token.MemoryProbe
	clock        *int64

	owners []*Account
	keys   []ed25519.PrivKey
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock += int64(d.Seconds())
}

// newTestEnv builds a state over a throwaway tree with n eligible owners
// staked at exactly the required amount.
func newTestEnv(t *testing.T, n int) *testEnv {
	t.Helper()
	ldb, err := dbm.NewDB("test", "goleveldb", t.TempDir())
	require.NoError(t, err)
	tree := iavl.NewMutableTree(ldb, 128, true, newTreeLogger(cmtlog.NewNopLogger()))
	_, err = tree.Load()
	require.NoError(t, err)

	clock := new(int64)
	*clock = 1_700_000_000

	env := &testEnv{
		ledger:       token.NewMemoryLedger(testTreasury),
		collectibles: token.NewMemoryCollectibles(),
		probe:        token.NewMemoryProbe(),
		clock:        clock,
	}
	collab := Collaborators{
		Tokens:       env.ledger,
		Collectibles: env.collectibles,
		Probe:        env.probe,
		Treasury:     testTreasury,
		Now:          func() int64 { return *clock },
	}
	st := newState(tree, cmtlog.NewNopLogger(), collab)
	st.header.ChainID = "stakegov-test"
	st.gov.RequiredStake = testRequiredStake

	for i := 0; i < n; i++ {
		priv := ed25519.GenPrivKey()
		a := &Account{Stake: testRequiredStake, Owner: true}
		a.SetPubKey(priv.PubKey().Bytes())
		require.NoError(t, st.AddAccount(a))
		st.gov.EligibleOwners += 1
		env.owners = append(env.owners, a)
		env.keys = append(env.keys, priv)
	}
	env.st = st
	return env
}

func TestDepositWithdrawConservation(t *testing.T) {
	env := newTestEnv(t, 2)
	st := env.st
	owner := env.owners[0]
	ext := owner.ExternalAddress()

	env.ledger.Mint(ext, 500)
	env.ledger.Approve(ext, testTreasury, 500)

	_, err := st.Deposit(0, owner.Index, false)
	require.ErrorIs(t, err, ErrZeroAmount)

	_, err = st.Deposit(600, owner.Index, false)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	ev, err := st.Deposit(500, owner.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(500), ev.Amount)
	require.Equal(t, uint64(testRequiredStake+500), owner.Stake)

	bal, err := env.ledger.BalanceOf(ext)
	require.NoError(t, err)
	require.Equal(t, uint64(0), bal)
	tbal, err := env.ledger.BalanceOf(testTreasury)
	require.NoError(t, err)
	require.Equal(t, uint64(500), tbal)

	ev, err = st.WithdrawExcess(owner.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(500), ev.Amount)
	require.Equal(t, uint64(testRequiredStake), owner.Stake)
	bal, _ = env.ledger.BalanceOf(ext)
	require.Equal(t, uint64(500), bal)

	_, err = st.WithdrawExcess(owner.Index, false)
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestDepositPaused(t *testing.T) {
	env := newTestEnv(t, 1)
	st := env.st
	env.st.gov.Paused = true
	owner := env.owners[0]
	env.ledger.Mint(owner.ExternalAddress(), 100)
	env.ledger.Approve(owner.ExternalAddress(), testTreasury, 100)

	_, err := st.Deposit(100, owner.Index, false)
	require.ErrorIs(t, err, ErrExecutionPaused)
}

func TestVoluntaryExit(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	owner := env.owners[0]
	env.ledger.Mint(testTreasury, testRequiredStake)

	ev, err := st.VoluntaryExit(owner.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(testRequiredStake), ev.Amount)
	require.False(t, owner.Owner)
	require.Equal(t, uint64(0), owner.Stake)
	require.Equal(t, uint64(2), st.gov.EligibleOwners)

	bal, err := env.ledger.BalanceOf(owner.ExternalAddress())
	require.NoError(t, err)
	require.Equal(t, uint64(testRequiredStake), bal)

	_, err = st.VoluntaryExit(owner.Index, false)
	require.ErrorIs(t, err, ErrNotEligible)
}

func TestExitWhileRemoving(t *testing.T) {
	env := newTestEnv(t, 3)
	st := env.st
	owner := env.owners[0]
	owner.Removing = true

	_, err := st.VoluntaryExit(owner.Index, false)
	require.ErrorIs(t, err, ErrExitWhileRemoving)
}

func TestRequestAdmission(t *testing.T) {
	env := newTestEnv(t, 2)
	st := env.st

	priv := ed25519.GenPrivKey()
	pub := priv.PubKey().Bytes()
	ext := common.BytesToAddress(priv.PubKey().Address())
	env.ledger.Mint(ext, 3*testRequiredStake)
	env.ledger.Approve(ext, testTreasury, 3*testRequiredStake)

	ev, err := st.RequestAdmission(pub, "candidate", false)
	require.NoError(t, err)
	require.Equal(t, uint64(testRequiredStake), ev.Amount)
	require.NotZero(t, st.gov.PendingCandidate)

	cand, err := st.FindAccount(priv.PubKey().Address())
	require.NoError(t, err)
	require.NotNil(t, cand)
	require.False(t, cand.Owner)
	require.Equal(t, uint64(testRequiredStake), cand.Stake)

	// second candidate blocked while one is pending
	priv2 := ed25519.GenPrivKey()
	ext2 := common.BytesToAddress(priv2.PubKey().Address())
	env.ledger.Mint(ext2, testRequiredStake)
	env.ledger.Approve(ext2, testTreasury, testRequiredStake)
	_, err = st.RequestAdmission(priv2.PubKey().Bytes(), "second", false)
	require.ErrorIs(t, err, ErrAlreadyOpen)

	// same address rate-limited even after the slot frees
	st.gov.PendingCandidate = 0
	_, err = st.RequestAdmission(pub, "candidate", false)
	require.ErrorIs(t, err, ErrAdmissionCooldown)

	env.advance(config.AdmissionCooldown() + time.Hour)
	_, err = st.RequestAdmission(pub, "candidate", false)
	require.NoError(t, err)
}

func TestUpdateRoundTrip(t *testing.T) {
	env := newTestEnv(t, 2)
	st := env.st
	owner := env.owners[0]

	_, err := st.Update()
	require.NoError(t, err)
	_, err = st.save()
	require.NoError(t, err)

	next := st.nextState()
	require.Equal(t, st.header.Height+1, next.header.Height)

	got, err := next.GetAccount(owner.Index)
	require.NoError(t, err)
	require.Equal(t, owner.Stake, got.Stake)
	require.True(t, got.Owner)

	found, err := next.FindAccount(owner.AddrBytes())
	require.NoError(t, err)
	require.Equal(t, owner.Index, found.Index)
}

func TestAccountIndexBounds(t *testing.T) {
	env := newTestEnv(t, 1)
	_, err := env.st.GetAccount(env.st.header.AccountIdx + 10)
	require.ErrorIs(t, err, ErrAccountNoexists)
}
