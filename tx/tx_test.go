package tx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumlab/stakegov/types"
)

func TestUnmarshalGovTxTypes(t *testing.T) {
	cases := []struct {
		name string
		btx  *GovTx
	}{
		{"open", &GovTx{Version: GovTxVersion1, Type: GovTxTypeOpen, Nonce: 3, Owner: 65536,
			Tx: &OpenTx{Topic: types.TopicPause, Value: types.ProposalValue{Flag: true}}}},
		{"vote", &GovTx{Version: GovTxVersion1, Type: GovTxTypeVote, Owner: 65537,
			Tx: &VoteTx{Topic: types.TopicRemoval, Approve: false}}},
		{"close", &GovTx{Version: GovTxVersion1, Type: GovTxTypeClose,
			Tx: &CloseTx{Topic: types.TopicTreasury}}},
		{"deposit", &GovTx{Version: GovTxVersion1, Type: GovTxTypeDeposit,
			Tx: &DepositTx{Amount: 42}}},
		{"withdraw", &GovTx{Version: GovTxVersion1, Type: GovTxTypeWithdraw, Tx: &WithdrawTx{}}},
		{"exit", &GovTx{Version: GovTxVersion1, Type: GovTxTypeExit, Tx: &ExitTx{}}},
		{"admission", &GovTx{Version: GovTxVersion1, Type: GovTxTypeAdmission,
			Tx: &AdmissionTx{Pubkey: []byte{1, 2, 3}, Name: "cand"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dat, err := MarshalGovTx(tc.btx)
			require.NoError(t, err)
			got, err := UnmarshalGovTx(dat)
			require.NoError(t, err)
			require.Equal(t, tc.btx.Type, got.Type)
			require.Equal(t, tc.btx.Nonce, got.Nonce)
			require.Equal(t, tc.btx.Owner, got.Owner)
			require.Equal(t, tc.btx.Tx, got.Tx)
		})
	}
}

func TestUnmarshalGovTxUnknownType(t *testing.T) {
	_, err := UnmarshalGovTx([]byte(`{"version":1,"type":99}`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)
}

func TestSigDataBindsChainID(t *testing.T) {
	btx := &GovTx{
		Version: GovTxVersion1,
		Type:    GovTxTypeVote,
		Nonce:   1,
		Owner:   65536,
		Tx:      &VoteTx{Topic: types.TopicPause, Approve: true},
		Sig:     [][]byte{{0xde, 0xad}},
	}
	a, err := btx.SigData([]byte("chain-a"))
	require.NoError(t, err)
	b, err := btx.SigData([]byte("chain-b"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	// signing data is independent of any signature already attached
	btx.Sig = nil
	c, err := btx.SigData([]byte("chain-a"))
	require.NoError(t, err)
	require.Equal(t, a, c)
}
