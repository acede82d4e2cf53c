package state

import (
	"bytes"
	"container/heap"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/quorumlab/stakegov/config"
	"github.com/quorumlab/stakegov/token"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

const (
	StartAccountIdx = 65536

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
	ModifiedFlagPK  = 1 << 2

	MaxOwnerListing = 100
)

var (
	KeyState        = "s"
	KeyAccountIndex = "i%s"
	KeyAccountBody  = "a%x"
	KeyGoverned     = "g"
	KeyRound        = "r%v"
	KeyWhitelist    = "w%s"
)

// Header is the committed tip of the ledger.
type Header struct {
	ChainID    string `json:"chainId"`
	Height     uint64 `json:"height"`
	AccountIdx uint64 `json:"accountIdx"`
	RootHash   []byte `json:"rootHash"`
	Hash       []byte `json:"hash"`
}

func (h *Header) Clone() *Header {
	n := *h
	n.RootHash = append([]byte(nil), h.RootHash...)
	n.Hash = append([]byte(nil), h.Hash...)
	return &n
}

// Governed holds every scalar mutated only through a settled vote, plus the
// shared eligible-owner counter all thresholds are computed against.
type Governed struct {
	RequiredStake    uint64         `json:"requiredStake"`
	Implementation   common.Address `json:"implementation"`
	Paused           bool           `json:"paused"`
	EligibleOwners   uint64         `json:"eligibleOwners"`
	PendingCandidate uint64         `json:"pendingCandidate"`
	RoundsSettled    uint64         `json:"roundsSettled"`
}

func (g *Governed) Clone() *Governed {
	n := *g
	return &n
}

// Collaborators are the external boundaries injected at construction. The
// state never reaches for ambient globals.
type Collaborators struct {
	Tokens       token.Ledger
	Collectibles token.Collectibles
	Probe        token.Probe

	// Treasury is the registry's custody identity on the external ledger.
	Treasury common.Address

	// Now overrides the clock; nil means wall time.
	Now func() int64
}

type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64
	collab Collaborators

	header *Header
	gov    *Governed

	idxs  map[string]uint64
	acnts map[uint64]*Account

	modifiedAcnts map[uint64]uint32
	rounds        map[types.Topic]*types.VoteRound
	modRounds     map[types.Topic]bool
	whitelist     map[common.Address]bool
	modWhitelist  map[common.Address]bool
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger, collab Collaborators) *State {
	s := &State{
		logger:        logger,
		db:            db,
		dbVer:         0,
		collab:        collab,
		header:        new(Header),
		gov:           new(Governed),
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		rounds:        make(map[types.Topic]*types.VoteRound),
		modRounds:     make(map[types.Topic]bool),
		whitelist:     make(map[common.Address]bool),
		modWhitelist:  make(map[common.Address]bool),
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) nextState() *State {
	n := newState(s.db, s.logger, s.collab)
	n.dbVer = s.dbVer
	n.header = s.header.Clone()
	n.gov = s.gov.Clone()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

func (s *State) now() int64 {
	if s.collab.Now != nil {
		return s.collab.Now()
	}
	return time.Now().Unix()
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val == nil {
		return nil
	}
	err = json.Unmarshal(val, s.header)
	if err != nil {
		return
	}
	val, err = s.db.Get([]byte(KeyGoverned))
	if err != nil && err != leveldb.ErrNotFound {
		return err
	}
	if val != nil {
		if err = json.Unmarshal(val, s.gov); err != nil {
			return
		}
	}
	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	return nil
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		if s.header.RootHash == nil {
			s.header.RootHash = make([]byte, len(rootHash))
		}
		copy(s.header.RootHash, rootHash)
		if s.header.Hash == nil {
			s.header.Hash = make([]byte, len(h))
		}
		copy(s.header.Hash, h[:])
	}
	return
}

// Update flushes every pending mutation into the working tree and returns
// the would-be app hash. Any write error rolls the tree back so a rejected
// transaction leaves nothing behind.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = json.Marshal(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	val, err = json.Marshal(s.gov)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyGoverned), val)
	if err != nil {
		return
	}

	if len(s.modRounds) > 0 {
		topics := make([]types.Topic, 0, len(s.modRounds))
		for topic := range s.modRounds {
			topics = append(topics, topic)
		}
		sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })
		for _, topic := range topics {
			key := fmt.Sprintf(KeyRound, uint8(topic))
			val, err = json.Marshal(s.rounds[topic])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
		}
	}

	if len(s.modWhitelist) > 0 {
		addrs := make([]common.Address, 0, len(s.modWhitelist))
		for addr := range s.modWhitelist {
			addrs = append(addrs, addr)
		}
		sort.Slice(addrs, func(i, j int) bool {
			return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
		})
		for _, addr := range addrs {
			key := fmt.Sprintf(KeyWhitelist, addr.Hex())
			flag := []byte{0}
			if s.whitelist[addr] {
				flag = []byte{1}
			}
			_, err = s.db.Set([]byte(key), flag)
			if err != nil {
				return
			}
		}
	}

	n := len(s.modifiedAcnts)
	if n > 0 {
		idxs := make([]uint64, n)
		i := 0
		for idx := range s.modifiedAcnts {
			idxs[i] = idx
			i += 1
		}
		sort.Slice(idxs, func(i, j int) bool {
			return idxs[i] < idxs[j]
		})
		for _, idx := range idxs {
			flag := s.modifiedAcnts[idx]
			acnt := s.acnts[idx]
			key := fmt.Sprintf(KeyAccountBody, acnt.Index)
			val, err = acnt.Encode()
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
			if (flag&ModifiedFlagNew == ModifiedFlagNew) || (flag&ModifiedFlagPK == ModifiedFlagPK) {
				key = fmt.Sprintf(KeyAccountIndex, acnt.Address())
				val, err = rlp.EncodeToBytes(acnt.Index)
				if err != nil {
					return
				}
				_, err = s.db.Set([]byte(key), val)
				if err != nil {
					return
				}
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[uint64]uint32)
	s.modRounds = make(map[types.Topic]bool)
	s.modWhitelist = make(map[common.Address]bool)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) Header() *Header {
	return s.header
}

func (s *State) Governed() *Governed {
	return s.gov
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainID(chainID string) {
	s.header.ChainID = chainID
}

func (s *State) touch(a *Account, flag uint32) {
	v := s.modifiedAcnts[a.Index]
	v |= flag
	s.modifiedAcnts[a.Index] = v
	s.acnts[a.Index] = a
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx >= s.header.AccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	key := fmt.Sprintf(KeyAccountBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt, err = DecodeAccount(val)
	if err != nil {
		return nil, err
	}
	s.acnts[idx] = acnt
	return
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	idx, ok := s.idxs[saddr]
	if !ok {
		key := fmt.Sprintf(KeyAccountIndex, saddr)
		val, err := s.db.Get([]byte(key))
		if err != nil {
			if err == leveldb.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	acnt, err = s.GetAccount(idx)

	return
}

// FindAccountByHex resolves a hex-encoded account address as carried in
// proposal payloads.
func (s *State) FindAccountByHex(target string) (*Account, error) {
	raw, err := hex.DecodeString(target)
	if err != nil || len(raw) != cmtcrypto.AddressSize {
		return nil, ErrInvalidProposal
	}
	return s.FindAccount(raw)
}

func (s *State) AddAccount(acnt *Account) (err error) {
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		err = ErrAccountAlreadyExists
		return
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.idxs[acnt.Address()] = acnt.Index
	s.touch(acnt, ModifiedFlagNew)
	return
}

func (s *State) Whitelisted(addr common.Address) (bool, error) {
	if v, ok := s.whitelist[addr]; ok {
		return v, nil
	}
	key := fmt.Sprintf(KeyWhitelist, addr.Hex())
	val, err := s.db.Get([]byte(key))
	if err != nil && err != leveldb.ErrNotFound {
		return false, err
	}
	v := len(val) == 1 && val[0] == 1
	s.whitelist[addr] = v
	return v, nil
}

func (s *State) setWhitelist(addr common.Address, v bool) {
	s.whitelist[addr] = v
	s.modWhitelist[addr] = true
}

// Verify checks nonce and signature of a signed envelope against the
// caller's stored account.
func (s *State) Verify(btx *tx.GovTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(btx.Owner)
	if err != nil {
		if err == ErrNotFound || err == ErrAccountNoexists {
			err = ErrTxOwnerNoexists
		}
		return succ, err
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainID))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

// VerifyAdmission checks an admission envelope. The signature verifies
// against the carried pubkey since the sender may not have an account yet.
func (s *State) VerifyAdmission(btx *tx.GovTx) (succ bool, err error) {
	atx, ok := btx.Tx.(*tx.AdmissionTx)
	if !ok {
		return false, tx.ErrUnmatchedTxType
	}
	if len(atx.Pubkey) != ed25519.PubKeySize {
		return false, tx.ErrInvalidTx
	}
	pk := ed25519.PubKey(atx.Pubkey)
	a, err := s.FindAccount(pk.Address())
	if err != nil {
		return false, err
	}
	wantNonce := uint64(0)
	if a != nil {
		wantNonce = a.Nonce
	}
	if btx.Nonce != wantNonce {
		return false, ErrTxNonceInvalid
	}
	dat, err := btx.SigData([]byte(s.header.ChainID))
	if err != nil {
		return false, err
	}
	if len(btx.Sig) != 1 || !pk.VerifySignature(dat, btx.Sig[0]) {
		return false, ErrTxSigInvalid
	}
	return true, nil
}

// ApplyGenesis seeds governed values and the initial owner set. Only legal
// on an empty ledger.
func (s *State) ApplyGenesis(doc *types.GenesisDoc) (err error) {
	if s.header.Hash != nil {
		return fmt.Errorf("genesis on non-empty state")
	}
	s.header.ChainID = doc.ChainID
	s.gov.RequiredStake = doc.RequiredStake
	s.gov.Implementation = doc.Implementation
	s.gov.Paused = doc.Paused
	for _, owner := range doc.Owners {
		acnt := &Account{
			PubKey:        owner.PubKey.Bytes(),
			Stake:         owner.Stake,
			Owner:         true,
			Name:          owner.Name,
			LastAdmission: uint64(doc.GenesisTime.Unix()),
		}
		if err = s.AddAccount(acnt); err != nil {
			return
		}
		s.gov.EligibleOwners += 1
	}
	return nil
}

// Deposit pulls collateral from the caller's external balance into registry
// custody and credits the locked stake balance.
func (s *State) Deposit(amount uint64, caller uint64, checkOnly bool) (event *types.EventStakeChange, err error) {
	s.logger.Debug("apply deposit", "owner", caller, "amount", amount, "height", s.header.Height)
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, ErrTxOwnerNoexists
	}
	if a.Blacklisted {
		return nil, ErrNotEligible
	}
	if s.gov.Paused {
		return nil, ErrExecutionPaused
	}
	from := a.ExternalAddress()
	allowed, err := s.collab.Tokens.Allowance(from, s.collab.Treasury)
	if err != nil {
		return nil, err
	}
	bal, err := s.collab.Tokens.BalanceOf(from)
	if err != nil {
		return nil, err
	}
	if allowed < amount || bal < amount {
		return nil, ErrInsufficientBalance
	}
	if !checkOnly {
		if err = s.collab.Tokens.TransferFrom(from, s.collab.Treasury, amount); err != nil {
			return nil, err
		}
		a.Stake += amount
		a.Nonce += 1
		s.touch(a, ModifiedFlagMod)
		event = &types.EventStakeChange{
			Kind:    types.EventDepositType,
			Owner:   a.Index,
			Address: a.Address(),
			Amount:  amount,
			Balance: a.Stake,
		}
	}
	return
}

// WithdrawExcess returns any locked balance above the required stake.
func (s *State) WithdrawExcess(caller uint64, checkOnly bool) (event *types.EventStakeChange, err error) {
	s.logger.Debug("apply withdraw", "owner", caller, "height", s.header.Height)
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, ErrTxOwnerNoexists
	}
	if !a.Owner || a.Removing {
		return nil, ErrNotEligible
	}
	if a.Stake <= s.gov.RequiredStake {
		return nil, ErrInsufficientBalance
	}
	excess := a.Stake - s.gov.RequiredStake
	if !checkOnly {
		if err = s.collab.Tokens.Transfer(a.ExternalAddress(), excess); err != nil {
			return nil, err
		}
		a.Stake = s.gov.RequiredStake
		a.Nonce += 1
		s.touch(a, ModifiedFlagMod)
		event = &types.EventStakeChange{
			Kind:    types.EventWithdrawType,
			Owner:   a.Index,
			Address: a.Address(),
			Amount:  excess,
			Balance: a.Stake,
		}
	}
	return
}

// VoluntaryExit forfeits owner status and returns the full locked balance.
func (s *State) VoluntaryExit(caller uint64, checkOnly bool) (event *types.EventStakeChange, err error) {
	s.logger.Debug("apply exit", "owner", caller, "height", s.header.Height)
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, ErrTxOwnerNoexists
	}
	if !a.Owner {
		return nil, ErrNotEligible
	}
	if a.Removing {
		return nil, ErrExitWhileRemoving
	}
	if !checkOnly {
		amount := a.Stake
		if amount > 0 {
			if err = s.collab.Tokens.Transfer(a.ExternalAddress(), amount); err != nil {
				return nil, err
			}
		}
		a.Stake = 0
		a.Owner = false
		a.Nonce += 1
		s.touch(a, ModifiedFlagMod)
		if s.gov.EligibleOwners > 0 {
			s.gov.EligibleOwners -= 1
		}
		if s.gov.PendingCandidate == a.Index {
			s.gov.PendingCandidate = 0
		}
		event = &types.EventStakeChange{
			Kind:    types.EventExitType,
			Owner:   a.Index,
			Address: a.Address(),
			Amount:  amount,
			Balance: 0,
		}
	}
	return
}

// RequestAdmission stakes the required amount for a non-owner and marks it
// the pending candidate for the admission topic. Rate-limited per address.
func (s *State) RequestAdmission(pubkey []byte, name string, checkOnly bool) (event *types.EventStakeChange, err error) {
	pk := ed25519.PubKey(pubkey)
	a, err := s.FindAccount(pk.Address())
	if err != nil {
		return nil, err
	}
	if a != nil {
		if a.Owner {
			return nil, ErrAccountAlreadyExists
		}
		if a.Blacklisted {
			return nil, ErrNotEligible
		}
		cooldown := uint64(config.AdmissionCooldown() / time.Second)
		if a.LastAdmission != 0 && uint64(s.now()) < a.LastAdmission+cooldown {
			return nil, ErrAdmissionCooldown
		}
	}
	if s.gov.PendingCandidate != 0 {
		return nil, ErrAlreadyOpen
	}
	required := s.gov.RequiredStake
	from := common.BytesToAddress(pk.Address())
	allowed, err := s.collab.Tokens.Allowance(from, s.collab.Treasury)
	if err != nil {
		return nil, err
	}
	bal, err := s.collab.Tokens.BalanceOf(from)
	if err != nil {
		return nil, err
	}
	if allowed < required || bal < required {
		return nil, ErrInsufficientBalance
	}
	if !checkOnly {
		if err = s.collab.Tokens.TransferFrom(from, s.collab.Treasury, required); err != nil {
			return nil, err
		}
		if a == nil {
			a = &Account{Name: name}
			a.SetPubKey(pubkey)
			if err = s.AddAccount(a); err != nil {
				return nil, err
			}
		}
		a.Stake += required
		a.Name = name
		a.LastAdmission = uint64(s.now())
		a.Nonce += 1
		s.touch(a, ModifiedFlagMod)
		s.gov.PendingCandidate = a.Index
		event = &types.EventStakeChange{
			Kind:    types.EventAdmissionRequestType,
			Owner:   a.Index,
			Address: a.Address(),
			Amount:  required,
			Balance: a.Stake,
			Name:    name,
		}
	}
	return
}

// TopOwners lists accounts ordered by locked stake, heaviest first.
func (s *State) TopOwners(max int) (accounts []*Account, height uint64, err error) {
	if max <= 0 || max > MaxOwnerListing {
		max = MaxOwnerListing
	}
	start := []byte(fmt.Sprintf(KeyAccountBody, ""))
	end := PrefixEndBytes(start)
	aIterator, err := s.db.Iterator(start, end, false)
	if err != nil {
		return nil, 0, err
	}

	ownersQueue := &StakeQueue{}
	heap.Init(ownersQueue)
	for ; aIterator.Valid(); aIterator.Next() {
		act, err := DecodeAccount(aIterator.Value())
		if err != nil {
			return nil, 0, err
		}
		if act.Owner {
			heap.Push(ownersQueue, act)
		}
	}

	for ownersQueue.Len() > 0 && len(accounts) < max {
		accounts = append(accounts, heap.Pop(ownersQueue).(*Account))
	}
	height = s.header.Height
	return
}

type StakeQueue []*Account

func (pq StakeQueue) Len() int { return len(pq) }

func (pq StakeQueue) Less(i, j int) bool {
	if pq[i].Stake == pq[j].Stake {
		return pq[i].Index < pq[j].Index
	}
	return pq[i].Stake > pq[j].Stake
}

func (pq StakeQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *StakeQueue) Push(x any) {
	item := x.(*Account)
	*pq = append(*pq, item)
}

func (pq *StakeQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
